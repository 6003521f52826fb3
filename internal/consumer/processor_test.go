package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/zenscape/internal/events"
)

func framedMessage(offset int64, schemaID uint32, payload string, headers ...kafka.Header) kafka.Message {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return kafka.Message{
		Topic:     events.TopicActivity,
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     value,
		Headers:   headers,
	}
}

func activityHeaders(userID string) []kafka.Header {
	return []kafka.Header{
		{Key: events.HeaderEventType, Value: []byte(events.TypeActivityLogged)},
		{Key: events.HeaderUserID, Value: []byte(userID)},
		{Key: events.HeaderSchemaSubject, Value: []byte("activity_events-value")},
	}
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := `{"activity_id":"abc"}`
	reader := &stubReader{messages: []kafka.Message{framedMessage(10, 42, payload, activityHeaders("user-1")...)}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(metrics.handled.WithLabelValues(events.TopicActivity, events.TypeActivityLogged))

	err := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0))).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeActivityLogged, handler.last.EventType)
	require.Equal(t, "user-1", handler.last.UserID)
	require.Equal(t, "activity_events-value", handler.last.SchemaSubject)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, payload, string(handler.last.Payload))
	require.InDelta(t, before+1, testutil.ToFloat64(metrics.handled.WithLabelValues(events.TopicActivity, events.TypeActivityLogged)), 0.0001)
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &stubReader{messages: []kafka.Message{framedMessage(20, 99, `{"activity_id":"def"}`, activityHeaders("user-2")...)}}
	handler := &stubHandler{err: errors.New("boom")}

	err := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0))).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	missingHeader := framedMessage(30, 1, `{}`)
	tooShort := kafka.Message{Topic: events.TopicActivity, Offset: 31, Value: []byte{0, 1}}
	badMagic := framedMessage(32, 1, `{}`, activityHeaders("user-3")...)
	badMagic.Value[0] = 7

	reader := &stubReader{messages: []kafka.Message{missingHeader, tooShort, badMagic}}
	handler := &stubHandler{}

	before := testutil.ToFloat64(metrics.undecoded.WithLabelValues(events.TopicActivity))

	err := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0))).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.InDelta(t, before+3, testutil.ToFloat64(metrics.undecoded.WithLabelValues(events.TopicActivity)), 0.0001)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}

// Package consumer reads outbox events from Kafka and hands them to handlers.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/zenscape/internal/events"
)

// Reader is the subset of *kafka.Reader the processor uses.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Message) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Message is a decoded record produced by the outbox dispatcher.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	EventType     string
	UserID        string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls messages from Kafka, decodes them and dispatches to a Handler.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewKafkaReader builds a consumer-group reader over topics.
func NewKafkaReader(brokers []string, groupID string, topics []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     time.Second,
	})
}

// Run consumes wellness events until ctx is cancelled. A record is committed
// once every handler accepted it; records with a broken envelope are committed
// and skipped so they cannot stall the partition.
func (p *Processor) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		record, err := p.reader.FetchMessage(ctx)
		switch {
		case err == nil:
			p.processOne(ctx, record)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			p.logger.Printf("fetch failed: %v", err)
		}
	}
	return ctx.Err()
}

func (p *Processor) processOne(ctx context.Context, record kafka.Message) {
	event, err := parseEnvelope(record)
	if err != nil {
		recordDecodeError(record.Topic)
		p.logger.Printf("skipping %s[%d]@%d: %v", record.Topic, record.Partition, record.Offset, err)
		p.commit(ctx, record)
		return
	}

	if err := p.handler.Handle(ctx, event); err != nil {
		recordHandlerError(event)
		p.logger.Printf("%s for user %s not applied: %v", event.EventType, event.UserID, err)
		return
	}
	if p.commit(ctx, record) {
		recordProcessed(event)
	}
}

func (p *Processor) commit(ctx context.Context, record kafka.Message) bool {
	if err := p.reader.CommitMessages(ctx, record); err != nil {
		p.logger.Printf("commit %s[%d]@%d failed: %v", record.Topic, record.Partition, record.Offset, err)
		return false
	}
	return true
}

var (
	errShortEnvelope = errors.New("envelope shorter than the schema registry prefix")
	errMissingType   = errors.New("envelope has no event type header")
)

// parseEnvelope unpacks the registry wire format written by the outbox
// dispatcher: a zero magic byte, a big-endian schema id, then the JSON body.
func parseEnvelope(record kafka.Message) (Message, error) {
	const prefix = 5
	value := record.Value
	if len(value) < prefix {
		return Message{}, errShortEnvelope
	}
	if magic := value[0]; magic != 0 {
		return Message{}, fmt.Errorf("unsupported magic byte %#x", magic)
	}

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	eventType := headers[events.HeaderEventType]
	if eventType == "" {
		return Message{}, errMissingType
	}

	return Message{
		Topic:         record.Topic,
		Partition:     record.Partition,
		Offset:        record.Offset,
		Timestamp:     record.Time,
		EventType:     eventType,
		UserID:        headers[events.HeaderUserID],
		SchemaSubject: headers[events.HeaderSchemaSubject],
		SchemaID:      int(binary.BigEndian.Uint32(value[1:prefix])),
		Payload:       json.RawMessage(append([]byte(nil), value[prefix:]...)),
	}, nil
}

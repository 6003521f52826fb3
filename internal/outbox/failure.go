package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertDeadLetter = `
INSERT INTO outbox_dlq (user_id, event_id, event_type, topic, payload, reason,
                        aggregate_type, aggregate_id, schema_subject, partition_key, next_retry_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`

// DLQWriter parks wellness events that could not be published so the DLQ
// manager can retry them.
type DLQWriter struct {
	pool *pgxpool.Pool
}

// NewDLQWriter returns a writer backed by pool.
func NewDLQWriter(pool *pgxpool.Pool) *DLQWriter {
	return &DLQWriter{pool: pool}
}

// Park inserts every message into outbox_dlq in one round trip. Each row is due
// for an immediate first retry.
func (w *DLQWriter) Park(ctx context.Context, messages []Message, reason string) error {
	if len(messages) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, msg := range messages {
		batch.Queue(insertDeadLetter,
			msg.UserID, msg.EventID, msg.EventType, msg.Topic, msg.Payload,
			fmt.Sprintf("%s (topic=%s)", reason, msg.Topic),
			msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, msg := range messages {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("park event %d: %w", msg.EventID, err)
		}
	}
	return nil
}

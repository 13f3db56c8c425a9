package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertDLQ = `INSERT INTO outbox_dlq (user_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, next_retry_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW())`

// DLQWriter parks undeliverable outbox messages in outbox_dlq, due for an immediate first retry.
type DLQWriter struct {
	pool *pgxpool.Pool
}

// NewDLQWriter returns a writer on pool.
func NewDLQWriter(pool *pgxpool.Pool) *DLQWriter {
	return &DLQWriter{pool: pool}
}

// WriteBatch inserts one DLQ row per message in a single round trip. The reason is tagged
// with each message's topic.
func (w *DLQWriter) WriteBatch(ctx context.Context, msgs []Message, reason string) error {
	if len(msgs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, msg := range msgs {
		batch.Queue(insertDLQ,
			msg.UserID, msg.EventID, msg.EventType, msg.Topic, msg.Payload,
			fmt.Sprintf("%s (topic=%s)", reason, msg.Topic),
			msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		)
	}

	results := w.pool.SendBatch(ctx, batch)
	for _, msg := range msgs {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("dlq insert for event %d: %w", msg.EventID, err)
		}
	}
	return results.Close()
}

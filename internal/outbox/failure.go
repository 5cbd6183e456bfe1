package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQWriter persists failed events for investigation and replay.
type DLQWriter struct {
	pool      *pgxpool.Pool
	baseDelay time.Duration
}

// NewDLQWriter initialises a writer backed by the provided connection pool.
// baseDelay seeds the backoff applied when a replayed event fails again.
func NewDLQWriter(pool *pgxpool.Pool, baseDelay time.Duration) *DLQWriter {
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQWriter{pool: pool, baseDelay: baseDelay}
}

// Write records a failed outbox message in the DLQ alongside the supplied reason.
// A first failure is eligible for replay immediately; an event that already went
// through the DLQ keeps its retry count and waits out the exponential backoff.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_key, owner_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, reason, next_retry_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, NOW())
        ON CONFLICT (event_key) DO UPDATE SET
            event_id = EXCLUDED.event_id,
            reason = EXCLUDED.reason,
            requeued_at = NULL,
            last_attempt_at = NOW(),
            next_retry_at = NOW() + LEAST($12::interval * power(2, GREATEST(outbox_dlq.retry_count - 1, 0)), $13::interval)`,
		msg.EventID, msg.EventKey, msg.OwnerID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Topic, msg.SchemaSubject, msg.PartitionKey, msg.Payload, reason,
		w.baseDelay, maxBackoff,
	)
	return err
}

// Resolve removes DLQ entries whose events have now been delivered.
func (w *DLQWriter) Resolve(ctx context.Context, eventKeys []string) error {
	if len(eventKeys) == 0 {
		return nil
	}
	_, err := w.pool.Exec(ctx, `DELETE FROM outbox_dlq WHERE event_key::text = ANY($1::text[])`, eventKeys)
	return err
}

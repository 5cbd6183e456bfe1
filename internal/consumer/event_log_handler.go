package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// eventRef holds the fields every activity event payload carries.
type eventRef struct {
	DestinationID int64     `json:"destination_id"`
	ActivityID    *int64    `json:"activity_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventLogHandler appends consumed events to the activity_event_log table.
// Redelivered events are ignored by event key.
type EventLogHandler struct {
	pool *pgxpool.Pool
}

// NewEventLogHandler constructs a handler backed by the provided pool.
func NewEventLogHandler(pool *pgxpool.Pool) *EventLogHandler {
	return &EventLogHandler{pool: pool}
}

// Handle stores the event in the activity_event_log table.
func (h *EventLogHandler) Handle(ctx context.Context, msg Message) error {
	var ref eventRef
	if err := json.Unmarshal(msg.Payload, &ref); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if ref.OccurredAt.IsZero() {
		ref.OccurredAt = msg.Timestamp
	}

	tag, err := h.pool.Exec(ctx,
		`INSERT INTO activity_event_log (event_key, event_type, owner_id, destination_id, activity_id, payload, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (event_key) DO NOTHING`,
		msg.EventKey,
		msg.EventType,
		msg.OwnerID,
		ref.DestinationID,
		ref.ActivityID,
		msg.Payload,
		ref.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", msg.EventKey, err)
	}
	if tag.RowsAffected() == 0 {
		recordDuplicate(msg)
	}
	return nil
}

//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/events"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/testsupport"
)

func TestEventLogHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	handler := NewEventLogHandler(pool)

	occurred := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(events.ActivityDeleted{
		EventID:       "0b6c7a1e-5d2f-4c7e-8a39-2f1d9e4b6a71",
		ActivityID:    3,
		DestinationID: 1,
		OwnerID:       "user-1",
		Position:      2,
		OccurredAt:    occurred,
	})
	require.NoError(t, err)

	msg := Message{
		Topic:     events.DefaultTopic,
		EventType: events.TypeActivityDeleted,
		EventKey:  "0b6c7a1e-5d2f-4c7e-8a39-2f1d9e4b6a71",
		OwnerID:   "user-1",
		SchemaID:  4,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	before := testutil.ToFloat64(duplicateCounter.WithLabelValues(events.TypeActivityDeleted))
	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg), "redelivery is a no-op")
	require.InDelta(t, before+1, testutil.ToFloat64(duplicateCounter.WithLabelValues(events.TypeActivityDeleted)), 0.0001)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var (
		destinationID int64
		activityID    *int64
		occurredAt    time.Time
		stored        []byte
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT destination_id, activity_id, occurred_at, payload FROM activity_event_log LIMIT 1`,
	).Scan(&destinationID, &activityID, &occurredAt, &stored))
	require.Equal(t, int64(1), destinationID)
	require.NotNil(t, activityID)
	require.Equal(t, int64(3), *activityID)
	require.True(t, occurred.Equal(occurredAt))
	require.JSONEq(t, string(payload), string(stored))
}

func TestEventLogHandlerStoresReorderWithoutActivity(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)

	env := events.Reordered("user-1", 5, []int64{3, 1, 2}, time.Now().UTC())
	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)

	require.NoError(t, NewEventLogHandler(pool).Handle(ctx, Message{
		EventType: env.Type,
		EventKey:  env.Key,
		OwnerID:   env.OwnerID,
		Payload:   payload,
	}))

	var activityID *int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT activity_id FROM activity_event_log WHERE destination_id = 5`).Scan(&activityID))
	require.Nil(t, activityID)
}

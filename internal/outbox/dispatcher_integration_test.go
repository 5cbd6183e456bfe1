//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/events"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/testsupport"
)

func seedActivity(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	repo := postgres.NewRepository(pool)
	dest, err := repo.AddDestination(ctx, "user-1", "Paris")
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = repo.AddActivity(ctx, "user-1", domain.Activity{DestinationID: dest.ID, Title: "Eiffel Tower", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
}

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	seedActivity(t, ctx, pool)

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(pool, producer, WithRegistry(registry), WithPolling(10*time.Millisecond, 5))

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, events.DefaultTopic, producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 1)
	require.Equal(t, events.TypeActivityAdded, header(producer.writes[0].messages[0], events.HeaderEventType))

	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)

	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1, "published rows are not claimed again")
}

func TestFailedEventsRoundTripThroughDLQ(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	seedActivity(t, ctx, pool)

	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(pool, producer, WithRegistry(&stubRegistry{id: 7}), WithRetryBaseDelay(time.Hour))
	manager := NewDLQManager(pool, nil, 3, time.Hour)

	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues(events.DefaultTopic))
	require.NoError(t, dispatcher.processBatch(ctx))
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues(events.DefaultTopic)), 0.0001)
	require.Equal(t, 1, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox_dlq WHERE reason LIKE 'kafka write failed%'`))

	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.Equal(t, 1, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`))
	require.Equal(t, 1, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox_dlq WHERE requeued_at IS NOT NULL AND retry_count = 1`))

	// A second failure keeps the retry count and backs off instead of becoming due immediately.
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Equal(t, 1, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox_dlq WHERE requeued_at IS NULL AND retry_count = 1 AND next_retry_at > NOW() + interval '30 minutes'`))
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, processed)

	_, err = pool.Exec(ctx, `UPDATE outbox_dlq SET next_retry_at = NOW()`)
	require.NoError(t, err)
	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	producer.err = nil
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1)
	require.Zero(t, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox_dlq`), "delivered events resolve their DLQ entry")
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	seedActivity(t, ctx, pool)

	dispatcher := NewDispatcher(pool, &stubProducer{err: errors.New("broker unavailable")})
	require.NoError(t, dispatcher.processBatch(ctx))

	_, err := pool.Exec(ctx, `UPDATE outbox_dlq SET retry_count = 3`)
	require.NoError(t, err)

	before := testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues(events.DefaultTopic, events.TypeActivityAdded))
	processed, err := NewDLQManager(pool, nil, 3, time.Minute).RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	require.InDelta(t, before+1, testutil.ToFloat64(dlqQuarantinedCounter.WithLabelValues(events.DefaultTopic, events.TypeActivityAdded)), 0.0001)

	require.Equal(t, 1, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`))
	require.Equal(t, float64(1), testutil.ToFloat64(dlqEntriesGauge.WithLabelValues(dlqStateQuarantined)))
	require.Zero(t, testutil.ToFloat64(dlqEntriesGauge.WithLabelValues(dlqStateWaiting)))
	require.Zero(t, countRows(t, ctx, pool, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`))
}

func countRows(t *testing.T, ctx context.Context, pool *pgxpool.Pool, query string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(ctx, query).Scan(&n))
	return n
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

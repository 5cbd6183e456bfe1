package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dlqProcessedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "dlq",
		Name:      "messages_processed_total",
		Help:      "Number of DLQ entries handled by the manager.",
	}, []string{"topic", "event_type"})

	dlqRequeuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "dlq",
		Name:      "messages_requeued_total",
		Help:      "Number of DLQ entries reinserted into the primary outbox.",
	}, []string{"topic", "event_type"})

	dlqQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "Number of DLQ entries quarantined after exhausting retries.",
	}, []string{"topic", "event_type"})

	dlqRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "Number of times a DLQ entry was scheduled for a future retry.",
	}, []string{"topic", "event_type"})

	dlqEntriesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "itinerary",
		Subsystem: "dlq",
		Name:      "entries",
		Help:      "Entries currently in the DLQ by state: waiting, requeued or quarantined.",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(dlqProcessedCounter, dlqRequeuedCounter, dlqQuarantinedCounter, dlqRetryCounter, dlqEntriesGauge)
}

func recordDLQProcessed(entry dlqEntry) {
	dlqProcessedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

func recordDLQRequeued(entry dlqEntry) {
	dlqRequeuedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

func recordDLQQuarantined(entry dlqEntry) {
	dlqQuarantinedCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

func recordDLQRetry(entry dlqEntry) {
	dlqRetryCounter.WithLabelValues(entry.Topic, entry.EventType).Inc()
}

// DLQ entry states reported by dlqEntriesGauge.
const (
	dlqStateWaiting     = "waiting"
	dlqStateRequeued    = "requeued"
	dlqStateQuarantined = "quarantined"
)

func updateDLQGauge(ctx context.Context, pool *pgxpool.Pool) {
	var waiting, requeued, quarantined int
	err := pool.QueryRow(ctx, `SELECT
            COUNT(*) FILTER (WHERE quarantined_at IS NULL AND requeued_at IS NULL),
            COUNT(*) FILTER (WHERE quarantined_at IS NULL AND requeued_at IS NOT NULL),
            COUNT(*) FILTER (WHERE quarantined_at IS NOT NULL)
        FROM outbox_dlq`).Scan(&waiting, &requeued, &quarantined)
	if err != nil {
		return
	}
	dlqEntriesGauge.WithLabelValues(dlqStateWaiting).Set(float64(waiting))
	dlqEntriesGauge.WithLabelValues(dlqStateRequeued).Set(float64(requeued))
	dlqEntriesGauge.WithLabelValues(dlqStateQuarantined).Set(float64(quarantined))
}

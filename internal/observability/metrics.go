package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Mutation operations recorded by RecordMutation.
const (
	OpAdd     = "add"
	OpEdit    = "edit"
	OpReorder = "reorder"
	OpDelete  = "delete"
)

var (
	activityMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "activities",
		Name:      "mutations_total",
		Help:      "Number of committed activity mutations, labeled by operation.",
	}, []string{"operation"})
	lastChangeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "itinerary",
		Subsystem: "activities",
		Name:      "last_change_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed activity mutation.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itinerary",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by route pattern, method and status code.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "itinerary",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func init() {
	prometheus.MustRegister(activityMutations, lastChangeGauge, httpRequests, httpDuration)
}

// RecordMutation counts a committed mutation and moves the change watermark.
func RecordMutation(operation string, ts time.Time) {
	activityMutations.WithLabelValues(operation).Inc()
	if ts.IsZero() {
		return
	}
	lastChangeGauge.Set(float64(ts.Unix()))
}

// Instrument records request counts and latency per chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xrpl_gateway"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "path"},
	)

	ledgerSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Total number of ledger submissions by kind and engine result.",
		},
		[]string{"kind", "result"},
	)

	ledgerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submission_duration_seconds",
			Help:      "Time from autofill to validation of ledger submissions.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
		},
		[]string{"kind"},
	)

	feeDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "distributed_drops_total",
			Help:      "XRP drops paid out per fee schedule and category.",
		},
		[]string{"schedule", "category"},
	)

	governanceEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "events_total",
			Help:      "Governance proposals, votes and overrides by outcome.",
		},
		[]string{"event", "outcome"},
	)

	governanceCooldowns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "active_cooldowns",
			Help:      "Number of ETFs currently in cooldown.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerSubmissions,
		ledgerDuration,
		feeDrops,
		governanceEvents,
		governanceCooldowns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Paths are labelled with the matched mux route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := routePath(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordSubmission records a ledger submission outcome. result is the engine
// result, or "error" when the submission never reached validation.
func RecordSubmission(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = "error"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	ledgerSubmissions.WithLabelValues(kind, result).Inc()
	ledgerDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordFeePayment adds paid drops for a schedule category.
func RecordFeePayment(schedule, category string, drops int64) {
	if drops <= 0 {
		return
	}
	feeDrops.WithLabelValues(schedule, category).Add(float64(drops))
}

// RecordGovernance counts a governance event ("proposal", "vote", "override_request",
// "override_apply") with its outcome.
func RecordGovernance(event, outcome string) {
	governanceEvents.WithLabelValues(event, outcome).Inc()
}

// SetActiveCooldowns reports how many ETFs are in cooldown.
func SetActiveCooldowns(n int) {
	governanceCooldowns.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// routePath keeps label cardinality bounded: unmatched paths collapse to
// their first segment.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return canonicalPath(r.URL.Path)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	return "/" + parts[0]
}

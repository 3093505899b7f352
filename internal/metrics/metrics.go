// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/dealpilot/internal/resilience"
)

// Tool outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomePanic    = "panic"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealpilot",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dealpilot",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ToolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealpilot",
		Name:      "tool_invocations_total",
		Help:      "Total workflow tool invocations by tool and outcome.",
	}, []string{"tool", "outcome"})

	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dealpilot",
		Name:      "tool_duration_seconds",
		Help:      "Workflow tool latency in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"tool"})

	TaskWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealpilot",
		Name:      "task_write_failures_total",
		Help:      "CRM task creations that failed, by backend.",
	}, []string{"backend"})

	WinScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dealpilot",
		Name:      "win_score",
		Help:      "Distribution of computed deal win scores.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dealpilot",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state by upstream (0 closed, 1 open, 2 half-open).",
	}, []string{"upstream"})
)

// Handler returns an http.Handler that serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware wraps an http.Handler to record request metrics. Routes are
// labelled with their chi pattern to bound cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()

		route := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// ObserveTool records one tool invocation.
func ObserveTool(tool, outcome string, elapsed time.Duration) {
	ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveBreaker is a resilience.BreakerConfig OnChange hook.
func ObserveBreaker(name string, _, to resilience.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

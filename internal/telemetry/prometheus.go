package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/r3e-network/research-orchestrator/internal/resilience"
)

// PrometheusExporter publishes live gauges/counters/histograms alongside
// Collector's pure audit-derived report, grounded on the teacher's
// pkg/metrics namespace/subsystem/histogram-bucket conventions.
type PrometheusExporter struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	reviewQueueSize *prometheus.GaugeVec
	clientCalls     *prometheus.CounterVec
}

// NewPrometheusExporter constructs and registers the orchestrator's
// Prometheus collectors against a dedicated registry.
func NewPrometheusExporter() *PrometheusExporter {
	e := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "research_orchestrator",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Duration of each orchestrator stage.",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"stage"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "research_orchestrator",
				Subsystem: "breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=half_open, 2=open).",
			},
			[]string{"service"},
		),
		reviewQueueSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "research_orchestrator",
				Subsystem: "review",
				Name:      "queue_depth",
				Help:      "Number of review queue entries by status.",
			},
			[]string{"status"},
		),
		clientCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "research_orchestrator",
				Subsystem: "external",
				Name:      "client_calls_total",
				Help:      "Total number of external client calls by outcome.",
			},
			[]string{"client", "outcome"},
		),
	}

	e.registry.MustRegister(e.stageDuration, e.breakerState, e.reviewQueueSize, e.clientCalls)
	return e
}

// Registry exposes the Prometheus registry for mounting a /metrics
// handler (e.g. via promhttp.HandlerFor in internal/api).
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveStageDuration records a stage's wall-clock duration in seconds.
func (e *PrometheusExporter) ObserveStageDuration(stage string, seconds float64) {
	e.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// SetBreakerState publishes a breaker's current numeric state.
func (e *PrometheusExporter) SetBreakerState(service string, state resilience.State) {
	var value float64
	switch state {
	case resilience.StateClosed:
		value = 0
	case resilience.StateHalfOpen:
		value = 1
	case resilience.StateOpen:
		value = 2
	}
	e.breakerState.WithLabelValues(service).Set(value)
}

// SetReviewQueueDepth publishes the current count of entries in status.
func (e *PrometheusExporter) SetReviewQueueDepth(status string, count int) {
	e.reviewQueueSize.WithLabelValues(status).Set(float64(count))
}

// IncClientCall increments the call counter for a client/outcome pair.
func (e *PrometheusExporter) IncClientCall(client, outcome string) {
	e.clientCalls.WithLabelValues(client, outcome).Inc()
}

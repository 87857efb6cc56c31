package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Document metrics
	DocumentsTotal          *prometheus.CounterVec
	DocumentTransitions     *prometheus.CounterVec
	EmissionDuration        *prometheus.HistogramVec
	NumbersReserved         prometheus.Counter
	UnrecognizedStatuses    prometheus.Counter

	// Charge metrics
	ChargesTotal            *prometheus.CounterVec
	LocalFallbacksTotal     prometheus.Counter

	// Gateway metrics
	GatewayRequestsTotal    *prometheus.CounterVec
	GatewayRequestDuration  *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState     *prometheus.GaugeVec

	// Worker metrics
	ReconcileRunsTotal      *prometheus.CounterVec
	ReconcileBatchDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Total number of fiscal documents by status",
			},
			[]string{"status"},
		),
		DocumentTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_transitions_total",
				Help:      "Total number of document status transitions",
			},
			[]string{"from", "to"},
		),
		EmissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "emission_duration_seconds",
				Help:      "Emission round trip duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation", "outcome"},
		),
		NumbersReserved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "numbers_reserved_total",
				Help:      "Total number of fiscal numbers reserved",
			},
		),
		UnrecognizedStatuses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unrecognized_gateway_statuses_total",
				Help:      "Total number of gateway statuses missing from the mapping table",
			},
		),
		ChargesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "charges_total",
				Help:      "Total number of payment charges by status",
			},
			[]string{"status"},
		),
		LocalFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "charge_local_fallbacks_total",
				Help:      "Total number of charges encoded locally because the provider was unreachable",
			},
		),
		GatewayRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of external gateway requests",
			},
			[]string{"gateway", "operation", "outcome"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "External gateway request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"gateway", "operation"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		ReconcileRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_runs_total",
				Help:      "Total number of reconciliation passes",
			},
			[]string{"loop", "outcome"},
		),
		ReconcileBatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_batch_duration_seconds",
				Help:      "Reconciliation batch duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"loop"},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.DocumentsTotal,
		m.DocumentTransitions,
		m.EmissionDuration,
		m.NumbersReserved,
		m.UnrecognizedStatuses,
		m.ChargesTotal,
		m.LocalFallbacksTotal,
		m.GatewayRequestsTotal,
		m.GatewayRequestDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
		m.ReconcileRunsTotal,
		m.ReconcileBatchDuration,
	)

	return m
}

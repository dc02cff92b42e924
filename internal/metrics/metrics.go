package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for mailpanel
type Metrics struct {
	// Content API client
	ContentAPIRequestsTotal          *prometheus.CounterVec
	ContentAPIRequestDurationSeconds *prometheus.HistogramVec
	CacheFallbacksTotal              *prometheus.CounterVec

	// Domain
	ReconcileDroppedTotal *prometheus.CounterVec
	ReportsGeneratedTotal *prometheus.CounterVec
	ABTestsSimulatedTotal prometheus.Counter

	// HTTP API
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	HTTPErrorsTotal            *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ContentAPIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_content_api_requests_total",
				Help: "Total number of content API requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		ContentAPIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailpanel_content_api_request_duration_seconds",
				Help:    "Content API request duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		CacheFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_cache_fallbacks_total",
				Help: "Total number of reads served from the local cache after an upstream failure",
			},
			[]string{"collection"},
		),
		ReconcileDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_reconcile_dropped_total",
				Help: "Total number of campaigns excluded from the fleet view",
			},
			[]string{"reason"},
		),
		ReportsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_reports_generated_total",
				Help: "Total number of PDF reports generated",
			},
			[]string{"kind", "result"},
		),
		ABTestsSimulatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mailpanel_abtests_simulated_total",
				Help: "Total number of A/B test simulations",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailpanel_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailpanel_http_errors_total",
				Help: "Total number of HTTP API errors",
			},
			[]string{"error_type"},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.ContentAPIRequestsTotal,
		m.ContentAPIRequestDurationSeconds,
		m.CacheFallbacksTotal,
		m.ReconcileDroppedTotal,
		m.ReportsGeneratedTotal,
		m.ABTestsSimulatedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.HTTPErrorsTotal,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// ObserveContentAPI records one content API call
func ObserveContentAPI(op, outcome string, d time.Duration) {
	m := Global()
	if m != nil {
		m.ContentAPIRequestsTotal.WithLabelValues(op, outcome).Inc()
		m.ContentAPIRequestDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
	}
}

// IncCacheFallback increments the cache fallback counter
func IncCacheFallback(collection string) {
	m := Global()
	if m != nil {
		m.CacheFallbacksTotal.WithLabelValues(collection).Inc()
	}
}

// IncReconcileDropped increments the dropped campaign counter
func IncReconcileDropped(reason string) {
	m := Global()
	if m != nil {
		m.ReconcileDroppedTotal.WithLabelValues(reason).Inc()
	}
}

// IncReportsGenerated increments the report counter
func IncReportsGenerated(kind string, err error) {
	m := Global()
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.ReportsGeneratedTotal.WithLabelValues(kind, result).Inc()
	}
}

// IncABTestsSimulated increments the simulation counter
func IncABTestsSimulated() {
	m := Global()
	if m != nil {
		m.ABTestsSimulatedTotal.Inc()
	}
}

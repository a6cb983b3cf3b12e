package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics using a dedicated Prometheus registry.
//
// A private registry keeps rate limit metrics isolated per limiter instance
// and avoids duplicate-registration panics in tests. Expose it via
// promhttp.HandlerFor(metrics.Registry(), ...).
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// decisionsTotal counts admission decisions by route and status
	// (status is "allowed" or "denied").
	decisionsTotal *prometheus.CounterVec

	// checkDuration observes how long each admission check takes.
	checkDuration prometheus.Histogram

	// activeKeys tracks the number of client keys currently in the store.
	activeKeys prometheus.Gauge
}

// NewPrometheusMetrics creates a PrometheusMetrics with its own registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_decisions_total",
			Help: "Rate limit admission decisions by route and status",
		},
		[]string{"route", "status"},
	)

	checkDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_rate_limit_check_duration_seconds",
			Help:    "Duration of rate limit admission checks",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	activeKeys := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_rate_limit_active_keys",
			Help: "Client keys currently tracked by the rate limiter",
		},
	)

	registry.MustRegister(decisionsTotal, checkDuration, activeKeys)

	return &PrometheusMetrics{
		registry:       registry,
		decisionsTotal: decisionsTotal,
		checkDuration:  checkDuration,
		activeKeys:     activeKeys,
	}
}

// Registry returns the registry containing all rate limit metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAllowed counts an admitted request for the route.
func (m *PrometheusMetrics) RecordAllowed(route string) {
	m.decisionsTotal.WithLabelValues(route, "allowed").Inc()
}

// RecordDenied counts a rejected request for the route.
func (m *PrometheusMetrics) RecordDenied(route string) {
	m.decisionsTotal.WithLabelValues(route, "denied").Inc()
}

// RecordCheckDuration observes the duration of one admission check.
func (m *PrometheusMetrics) RecordCheckDuration(duration time.Duration) {
	m.checkDuration.Observe(duration.Seconds())
}

// SetActiveKeys records the current number of tracked client keys.
func (m *PrometheusMetrics) SetActiveKeys(count int) {
	m.activeKeys.Set(float64(count))
}

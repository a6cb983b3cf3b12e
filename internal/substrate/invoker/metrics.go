package invoker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks function invocations.
type Metrics struct {
	// invocationsTotal counts invocations by function and outcome
	// (outcome is "success" or "error").
	invocationsTotal *prometheus.CounterVec

	// duration observes how long each invocation takes, by function.
	duration *prometheus.HistogramVec
}

// NewMetrics registers invocation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		invocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "function_invocations_total",
				Help: "Function invocations by function name and outcome",
			},
			[]string{"function", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "function_invocation_duration_seconds",
				Help:    "Function invocation duration by function name",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"function"},
		),
	}
}

// observe records one invocation outcome.
func (m *Metrics) observe(function string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.invocationsTotal.WithLabelValues(function, outcome).Inc()
	m.duration.WithLabelValues(function).Observe(elapsed.Seconds())
}

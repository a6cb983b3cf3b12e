package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks consumer activity.
type Metrics struct {
	// messagesTotal counts processed messages by outcome (success/failure).
	messagesTotal *prometheus.CounterVec

	// processDuration measures how long one announcement takes.
	processDuration prometheus.Histogram

	// queueDepth is the last reported depth of the match queue.
	queueDepth prometheus.Gauge

	// lastSuccess is the Unix timestamp of the last processed message.
	lastSuccess prometheus.Gauge
}

// NewMetrics registers worker metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_messages_processed_total",
				Help: "Messages drained from the match queue by outcome",
			},
			[]string{"outcome"},
		),
		processDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "worker_message_duration_seconds",
				Help:    "Time to announce one drained message",
				Buckets: prometheus.DefBuckets,
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_queue_depth",
				Help: "Depth of the match queue at the last scheduled report",
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_last_success_timestamp_seconds",
				Help: "Unix timestamp of the last successfully announced message",
			},
		),
	}
}

// RecordMessage counts one drained message and its processing time.
func (m *Metrics) RecordMessage(outcome string, duration time.Duration) {
	m.messagesTotal.WithLabelValues(outcome).Inc()
	m.processDuration.Observe(duration.Seconds())
}

// RecordLastSuccess stamps the last successful announcement.
func (m *Metrics) RecordLastSuccess() {
	m.lastSuccess.SetToCurrentTime()
}

// SetQueueDepth records the queue depth from a scheduled report.
func (m *Metrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

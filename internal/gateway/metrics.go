package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks routed requests.
type Metrics struct {
	// requestsTotal counts routed requests by method, path, and status code.
	requestsTotal *prometheus.CounterVec
}

// NewMetrics registers gateway metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Requests routed through the gateway by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// RecordRequest counts one routed request.
func (m *Metrics) RecordRequest(method, path string, status int) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

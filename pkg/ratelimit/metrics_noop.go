package ratelimit

import "time"

// NoOpMetrics implements Metrics with no-op methods.
//
// Useful in tests and benchmarks where metrics output is noise.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAllowed is a no-op.
func (m *NoOpMetrics) RecordAllowed(route string) {}

// RecordDenied is a no-op.
func (m *NoOpMetrics) RecordDenied(route string) {}

// RecordCheckDuration is a no-op.
func (m *NoOpMetrics) RecordCheckDuration(duration time.Duration) {}

// SetActiveKeys is a no-op.
func (m *NoOpMetrics) SetActiveKeys(count int) {}

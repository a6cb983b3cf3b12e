package ratelimit

import (
	"context"
	"time"
)

// Limiter composes a Store, an Algorithm, and a Metrics sink into a single
// admission check with a fixed limit and window.
type Limiter struct {
	store     Store
	algorithm Algorithm
	metrics   Metrics
	limit     int
	window    time.Duration
}

// LimiterConfig holds the knobs for a Limiter.
type LimiterConfig struct {
	// Limit is the maximum number of requests per window. Zero or negative
	// selects the default of 100.
	Limit int

	// Window is the sliding window duration. Zero selects 60 seconds.
	Window time.Duration

	// Store holds request timestamps. Nil selects a MemoryStore with
	// default configuration.
	Store Store

	// Algorithm decides admission. Nil selects a sliding window over the
	// system clock.
	Algorithm Algorithm

	// Metrics receives observations. Nil selects NoOpMetrics.
	Metrics Metrics
}

// NewLimiter creates a Limiter, filling unset config fields with defaults.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Limit <= 0 {
		config.Limit = 100
	}
	if config.Window <= 0 {
		config.Window = 60 * time.Second
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(MemoryStoreConfig{})
	}
	if config.Algorithm == nil {
		config.Algorithm = NewSlidingWindowAlgorithm(nil)
	}
	if config.Metrics == nil {
		config.Metrics = NewNoOpMetrics()
	}

	return &Limiter{
		store:     config.Store,
		algorithm: config.Algorithm,
		metrics:   config.Metrics,
		limit:     config.Limit,
		window:    config.Window,
	}
}

// Allow evaluates one request for the client key against the configured
// limit and window, recording metrics for the given route label.
func (l *Limiter) Allow(ctx context.Context, key, route string) (*Decision, error) {
	start := time.Now()

	decision, err := l.algorithm.IsAllowed(ctx, key, l.store, l.limit, l.window)

	l.metrics.RecordCheckDuration(time.Since(start))
	if err != nil {
		return nil, err
	}

	if decision.Allowed {
		l.metrics.RecordAllowed(route)
	} else {
		l.metrics.RecordDenied(route)
	}

	if count, countErr := l.store.KeyCount(ctx); countErr == nil {
		l.metrics.SetActiveKeys(count)
	}

	return decision, nil
}

// ActiveKeys returns the number of client keys the store currently tracks.
func (l *Limiter) ActiveKeys(ctx context.Context) (int, error) {
	return l.store.KeyCount(ctx)
}

// Limit returns the configured per-window request budget.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured sliding window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

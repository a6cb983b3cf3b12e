package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindowAlgorithm admits a request when fewer than limit requests were
// recorded for the key within the trailing window.
//
// The algorithm tracks individual request timestamps, so the window slides
// continuously instead of resetting on fixed boundaries. It also protects
// against the system clock moving backwards (NTP adjustment, manual change):
// the last valid timestamp per key is remembered, and an earlier "now" is
// replaced by it so a clock step cannot reopen an exhausted window.
type SlidingWindowAlgorithm struct {
	clock Clock

	// mu protects lastTimestamps
	mu             sync.RWMutex
	lastTimestamps map[string]time.Time

	windowDuration time.Duration
}

// NewSlidingWindowAlgorithm creates a sliding window algorithm.
// Passing a nil clock selects the system clock.
func NewSlidingWindowAlgorithm(clock Clock) *SlidingWindowAlgorithm {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &SlidingWindowAlgorithm{
		clock:          clock,
		lastTimestamps: make(map[string]time.Time),
	}
}

// IsAllowed evaluates one request for the key.
//
// When the store implements AtomicStore, the count and the add happen under
// one lock acquisition, so concurrent requests cannot both take the last slot
// in a window. Otherwise the check falls back to separate count and add calls.
//
// Parameters:
//   - ctx: Context for cancellation
//   - key: Client identifier (e.g., IP address)
//   - store: Backend holding request timestamps
//   - limit: Maximum requests per window
//   - window: Sliding window duration
//
// Returns the Decision, or an error if the store failed.
func (a *SlidingWindowAlgorithm) IsAllowed(
	ctx context.Context,
	key string,
	store Store,
	limit int,
	window time.Duration,
) (*Decision, error) {
	a.mu.Lock()
	a.windowDuration = window
	a.mu.Unlock()

	now := a.validTimestamp(key)
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	if atomicStore, ok := store.(AtomicStore); ok {
		allowed, count, err := atomicStore.CheckAndAddRequest(ctx, key, now, cutoff, limit)
		if err != nil {
			return nil, fmt.Errorf("check and add request: %w", err)
		}
		if allowed {
			return newAllowedDecision(key, limit, limit-count, resetAt), nil
		}
		return newDeniedDecision(key, limit, resetAt, resetAt.Sub(now)), nil
	}

	count, err := store.CountRequests(ctx, key, cutoff)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	if count < limit {
		if err := store.AddRequest(ctx, key, now); err != nil {
			return nil, fmt.Errorf("add request: %w", err)
		}
		return newAllowedDecision(key, limit, limit-count-1, resetAt), nil
	}
	return newDeniedDecision(key, limit, resetAt, resetAt.Sub(now)), nil
}

// WindowDuration returns the window last passed to IsAllowed.
func (a *SlidingWindowAlgorithm) WindowDuration() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.windowDuration
}

// validTimestamp returns the current time, substituting the last seen
// timestamp for the key when the clock has gone backwards.
func (a *SlidingWindowAlgorithm) validTimestamp(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	lastSeen, exists := a.lastTimestamps[key]

	if exists && now.Before(lastSeen) {
		slog.Warn("clock skew detected, using last valid timestamp",
			slog.String("key", key),
			slog.Time("now", now),
			slog.Time("last_seen", lastSeen),
			slog.Duration("skew", lastSeen.Sub(now)),
		)
		return lastSeen
	}

	a.lastTimestamps[key] = now
	return now
}

// CleanupExpiredTimestamps drops clock-skew tracking entries older than
// maxAge. Call periodically to bound memory for churning client keys.
// Returns the number of entries removed.
func (a *SlidingWindowAlgorithm) CleanupExpiredTimestamps(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-maxAge)
	removed := 0
	for key, ts := range a.lastTimestamps {
		if ts.Before(cutoff) {
			delete(a.lastTimestamps, key)
			removed++
		}
	}
	return removed
}

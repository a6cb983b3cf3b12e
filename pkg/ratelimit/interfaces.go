// Package ratelimit provides framework-agnostic sliding-window rate limiting.
//
// The package separates three concerns behind interfaces so they can be swapped
// independently: a Store holding per-client request timestamps, an Algorithm
// deciding admission, and a Metrics sink. The gateway uses it to enforce a
// per-client request budget; it is equally usable from CLIs or background jobs.
package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for persisting rate limit state.
//
// Implementations track request timestamps per client key. All methods must
// be safe for concurrent use.
type Store interface {
	// AddRequest records a request timestamp for the given client key.
	AddRequest(ctx context.Context, key string, timestamp time.Time) error

	// CountRequests returns how many recorded requests for the key occurred
	// strictly after the cutoff time. Older entries may be discarded as a
	// side effect.
	CountRequests(ctx context.Context, key string, cutoff time.Time) (int, error)

	// Cleanup removes timestamps older than the cutoff across all keys.
	// Keys left with no timestamps are removed entirely.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount returns the number of client keys currently tracked.
	KeyCount(ctx context.Context) (int, error)
}

// AtomicStore extends Store with a combined check-and-add operation.
//
// The check and the add happen under a single lock acquisition, so two
// concurrent requests racing for the last slot in a window cannot both be
// admitted.
type AtomicStore interface {
	Store

	// CheckAndAddRequest counts requests after cutoff and, if the count is
	// below limit, records the new timestamp. It returns whether the request
	// was admitted and the count of requests in the window (including the new
	// one when admitted).
	CheckAndAddRequest(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (allowed bool, count int, err error)
}

// Algorithm decides whether a request should be admitted.
type Algorithm interface {
	// IsAllowed evaluates one request against the limit and window using the
	// given store, and returns a Decision describing the verdict.
	IsAllowed(ctx context.Context, key string, store Store, limit int, window time.Duration) (*Decision, error)

	// WindowDuration returns the window last used by this algorithm.
	WindowDuration() time.Duration
}

// Metrics receives observations about rate limit checks.
//
// Implementations can forward to Prometheus or discard everything (NoOpMetrics).
type Metrics interface {
	// RecordAllowed counts an admitted request for the given route.
	RecordAllowed(route string)

	// RecordDenied counts a rejected request for the given route.
	RecordDenied(route string)

	// RecordCheckDuration records how long one admission check took.
	RecordCheckDuration(duration time.Duration)

	// SetActiveKeys records the number of client keys currently tracked.
	SetActiveKeys(count int)
}

// Clock abstracts time lookups so tests can control the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

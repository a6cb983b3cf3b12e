package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the result of one rate limit check.
//
// It carries everything the caller needs to build a response: the verdict,
// how many requests remain in the current window, and when the client may
// retry after a rejection.
type Decision struct {
	// Key is the client identifier the decision applies to.
	Key string

	// Allowed reports whether the request is within the limit.
	Allowed bool

	// Limit is the maximum number of requests permitted per window.
	Limit int

	// Remaining is how many more requests the client may make in the
	// current window. Zero when the limit has been reached.
	Remaining int

	// ResetAt is when the current window expires.
	ResetAt time.Time

	// RetryAfter is how long a rejected client should wait before retrying.
	RetryAfter time.Duration
}

// String returns a compact human-readable form, used in debug logs.
func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("Decision{Allowed: true, Key: %s, Remaining: %d/%d}", d.Key, d.Remaining, d.Limit)
	}
	return fmt.Sprintf("Decision{Allowed: false, Key: %s, Limit: %d, RetryAfter: %s}", d.Key, d.Limit, d.RetryAfter)
}

// Denied reports whether the request was rejected.
func (d *Decision) Denied() bool {
	return !d.Allowed
}

// RetryAfterSeconds returns the retry delay in whole seconds, clamped at
// zero. Useful for Retry-After headers.
func (d *Decision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// newAllowedDecision builds a Decision for an admitted request.
func newAllowedDecision(key string, limit, remaining int, resetAt time.Time) *Decision {
	return &Decision{
		Key:       key,
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// newDeniedDecision builds a Decision for a rejected request.
func newDeniedDecision(key string, limit int, resetAt time.Time, retryAfter time.Duration) *Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Decision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}

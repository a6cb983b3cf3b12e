package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store.
//
// Request timestamps are kept in a slice per client key, purged lazily on
// every count. A maximum key bound prevents unbounded growth: when the bound
// is hit and a new key arrives, the key with the oldest last access is
// evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*timestampList
	maxKeys  int
	clock    Clock
}

// timestampList holds timestamps for a single key.
type timestampList struct {
	timestamps []time.Time
	lastAccess time.Time
}

// MemoryStoreConfig holds configuration for MemoryStore.
type MemoryStoreConfig struct {
	// MaxKeys bounds the number of tracked client keys. Zero or negative
	// selects the default of 10000.
	MaxKeys int

	// Clock provides time operations for testing. Nil selects SystemClock.
	Clock Clock
}

// NewMemoryStore creates an in-memory rate limit store.
func NewMemoryStore(config MemoryStoreConfig) *MemoryStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	return &MemoryStore{
		requests: make(map[string]*timestampList),
		maxKeys:  config.MaxKeys,
		clock:    config.Clock,
	}
}

// AddRequest records a request timestamp for the key, evicting the least
// recently accessed key first if the store is at capacity.
func (s *MemoryStore) AddRequest(ctx context.Context, key string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(key, timestamp)
	return nil
}

// CountRequests returns the number of recorded requests strictly after the
// cutoff. Entries at or before the cutoff are discarded in the same pass, so
// the per-key slice stays bounded by the window.
func (s *MemoryStore) CountRequests(ctx context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeAndCountLocked(key, cutoff), nil
}

// Cleanup removes timestamps at or before the cutoff from every key and
// deletes keys left empty.
func (s *MemoryStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.requests {
		if s.purgeAndCountLocked(key, cutoff) == 0 {
			delete(s.requests, key)
		}
	}
	return nil
}

// KeyCount returns the number of client keys currently tracked.
func (s *MemoryStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

// CheckAndAddRequest counts requests after cutoff and records the new
// timestamp only when the count is below limit. The whole operation runs
// under one lock acquisition.
func (s *MemoryStore) CheckAndAddRequest(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.purgeAndCountLocked(key, cutoff)
	if count >= limit {
		return false, count, nil
	}

	s.addLocked(key, timestamp)
	return true, count + 1, nil
}

// addLocked appends a timestamp for the key. Caller holds the write lock.
func (s *MemoryStore) addLocked(key string, timestamp time.Time) {
	tsList, exists := s.requests[key]
	if !exists {
		if len(s.requests) >= s.maxKeys {
			s.evictOldestLocked()
		}
		tsList = &timestampList{timestamps: make([]time.Time, 0, 16)}
		s.requests[key] = tsList
	}
	tsList.timestamps = append(tsList.timestamps, timestamp)
	tsList.lastAccess = timestamp
}

// purgeAndCountLocked drops entries at or before cutoff and returns the
// remaining count. Caller holds the write lock.
func (s *MemoryStore) purgeAndCountLocked(key string, cutoff time.Time) int {
	tsList, exists := s.requests[key]
	if !exists {
		return 0
	}

	kept := tsList.timestamps[:0]
	for _, ts := range tsList.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	tsList.timestamps = kept
	return len(kept)
}

// evictOldestLocked removes the key with the oldest last access time.
// Caller holds the write lock.
func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestAccess time.Time
	first := true

	for key, tsList := range s.requests {
		if first || tsList.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = tsList.lastAccess
			first = false
		}
	}

	if oldestKey != "" {
		delete(s.requests, oldestKey)
	}
}

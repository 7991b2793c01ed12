package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory throttle store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	valid := prune(s.hits[key], now.Add(-window))
	valid = append(valid, now)
	s.hits[key] = valid

	return int64(len(valid)), nil
}

// Sweep drops keys with no hits inside window so authors that went quiet do
// not keep entries alive forever. It returns the number of keys removed.
func (s *RateLimitMemoryStore) Sweep(window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-window)
	removed := 0

	for key, hits := range s.hits {
		valid := prune(hits, cutoff)
		if len(valid) == 0 {
			delete(s.hits, key)

			removed++

			continue
		}

		s.hits[key] = valid
	}

	return removed
}

// Len returns the number of tracked keys.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.hits)
}

// prune returns the hits after cutoff. Hits are appended in time order, so
// the first valid one ends the expired prefix.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range hits {
		if ts.After(cutoff) {
			return append(make([]time.Time, 0, len(hits)-i+1), hits[i:]...)
		}
	}

	return nil
}

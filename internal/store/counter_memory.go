package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/serroba/guildbot/internal/counter"
)

// CounterMemoryStore is an in-memory implementation of counter.Store.
//
// Per-key counts live in a map guarded by mu. The running total is updated
// inside the same critical section, so a completed Increment is always
// visible to ReadAggregate, which loads the total without taking the lock.
type CounterMemoryStore struct {
	mu     sync.Mutex
	counts map[counter.Key]uint64
	total  atomic.Uint64

	poisoned atomic.Bool
	closed   atomic.Bool
}

// NewCounterMemoryStore creates a new empty in-memory counter store.
func NewCounterMemoryStore() *CounterMemoryStore {
	return &CounterMemoryStore{
		counts: make(map[counter.Key]uint64),
	}
}

func (s *CounterMemoryStore) Increment(_ context.Context, key counter.Key) error {
	if key == "" {
		return counter.ErrEmptyKey
	}

	return s.locked(func() {
		s.counts[key]++
		s.total.Add(1)
	})
}

func (s *CounterMemoryStore) ReadAggregate(_ context.Context) (uint64, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}

	return s.total.Load(), nil
}

func (s *CounterMemoryStore) Count(_ context.Context, key counter.Key) (uint64, error) {
	var n uint64

	err := s.locked(func() {
		n = s.counts[key]
	})

	return n, err
}

// Close drops all counts. It is safe to call more than once.
func (s *CounterMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	s.counts = nil

	return nil
}

// Shutdown closes the store when it is managed by a lifecycle controller.
func (s *CounterMemoryStore) Shutdown() error {
	return s.Close()
}

// locked runs fn while holding mu. A panic inside fn poisons the store and is
// reported as ErrPoisoned. The deferred unlock runs after the recover, so the
// lock is never left held.
func (s *CounterMemoryStore) locked(fn func()) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			err = fmt.Errorf("%w: %v", counter.ErrPoisoned, r)
		}
	}()

	fn()

	return nil
}

func (s *CounterMemoryStore) usable() error {
	if s.poisoned.Load() {
		return counter.ErrPoisoned
	}

	if s.closed.Load() {
		return counter.ErrClosed
	}

	return nil
}

// Compile-time check.
var _ counter.Store = (*CounterMemoryStore)(nil)

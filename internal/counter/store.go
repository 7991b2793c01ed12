package counter

import (
	"context"
	"errors"
)

var (
	// ErrPoisoned is returned once a critical section has panicked. The store
	// refuses every later operation instead of serving possibly corrupt state.
	ErrPoisoned = errors.New("counter store poisoned")
	// ErrClosed is returned by operations on a store that was torn down.
	ErrClosed = errors.New("counter store closed")
	// ErrEmptyKey is returned when incrementing an empty key.
	ErrEmptyKey = errors.New("counter key is empty")
)

// Key identifies a tracked counter, typically a user id.
type Key string

// Store defines the interface for message counter storage.
type Store interface {
	// Increment adds one to the count for key, creating it if absent.
	Increment(ctx context.Context, key Key) error

	// ReadAggregate returns the sum of all counts. It reflects every
	// Increment that returned before the call began.
	ReadAggregate(ctx context.Context) (uint64, error)

	// Count returns the count for a single key, zero if never incremented.
	Count(ctx context.Context, key Key) (uint64, error)

	// Close tears the store down. Later operations return ErrClosed.
	Close() error
}

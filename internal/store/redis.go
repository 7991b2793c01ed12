package store

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/guildbot/internal/counter"
)

// RedisCounter is a Redis implementation of counter.Store.
//
// Per-key counts live in a hash and the aggregate in a plain integer key.
// Both are updated in one MULTI/EXEC transaction, which Redis executes
// without interleaving, so the total never disagrees with the hash.
type RedisCounter struct {
	client    *redis.Client
	countsKey string // "messages:counts" for key->count (hash map)
	totalKey  string // "messages:total" for the aggregate (string key)
	closed    atomic.Bool
}

// NewRedisCounter creates a new Redis-backed counter store.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{
		client:    client,
		countsKey: "messages:counts",
		totalKey:  "messages:total",
	}
}

func (r *RedisCounter) Increment(ctx context.Context, key counter.Key) error {
	if key == "" {
		return counter.ErrEmptyKey
	}

	if r.closed.Load() {
		return counter.ErrClosed
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, r.countsKey, string(key), 1)
		pipe.Incr(ctx, r.totalKey)

		return nil
	})

	return err
}

func (r *RedisCounter) ReadAggregate(ctx context.Context) (uint64, error) {
	if r.closed.Load() {
		return 0, counter.ErrClosed
	}

	total, err := r.client.Get(ctx, r.totalKey).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, err
	}

	return total, nil
}

func (r *RedisCounter) Count(ctx context.Context, key counter.Key) (uint64, error) {
	if r.closed.Load() {
		return 0, counter.ErrClosed
	}

	n, err := r.client.HGet(ctx, r.countsKey, string(key)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, err
	}

	return n, nil
}

// Close marks the store closed. The client is managed externally.
func (r *RedisCounter) Close() error {
	r.closed.Store(true)

	return nil
}

// Shutdown closes the store when it is managed by a lifecycle controller.
func (r *RedisCounter) Shutdown() error {
	return r.Close()
}

// Compile-time check.
var _ counter.Store = (*RedisCounter)(nil)

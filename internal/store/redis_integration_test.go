//go:build integration

package store_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/guildbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRedisCounterIntegration(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	// Cleanup
	client.Del(ctx, "messages:counts", "messages:total")
	defer client.Del(ctx, "messages:counts", "messages:total")

	s := store.NewRedisCounter(client)

	t.Run("empty store reads zero", func(t *testing.T) {
		total, err := s.ReadAggregate(ctx)
		require.NoError(t, err)
		assert.Zero(t, total)

		n, err := s.Count(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		var wg sync.WaitGroup

		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for range 20 {
					_ = s.Increment(ctx, "userA")
				}
			}()
		}

		wg.Wait()

		total, err := s.ReadAggregate(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), total)

		n, err := s.Count(ctx, "userA")
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), n)
	})
}

func TestRedisSinkIntegration(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	defer client.Del(ctx, "stats:messages_total", "stats:messages_total:updated_at")

	s := store.NewRedisSink(client)

	require.NoError(t, s.Report(ctx, 7))

	got, err := client.Get(ctx, "stats:messages_total").Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)
}

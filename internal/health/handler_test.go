package health_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/health"
	"github.com/serroba/guildbot/internal/scheduler"
	"github.com/serroba/guildbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

type mockState struct {
	state scheduler.State
}

func (m mockState) State() scheduler.State {
	return m.state
}

type poisonedStore struct{}

func (poisonedStore) ReadAggregate(_ context.Context) (uint64, error) {
	return 0, counter.ErrPoisoned
}

func TestNewHandler(t *testing.T) {
	handler := health.NewHandler(health.Check{Name: "redis", Checker: &mockChecker{}})

	assert.NotNil(t, handler)
}

func TestHandler_Check(t *testing.T) {
	t.Run("returns ok when everything is healthy", func(t *testing.T) {
		handler := health.NewHandler(
			health.Check{Name: "redis", Checker: &mockChecker{}},
			health.Check{Name: "counter", Checker: health.StoreChecker(store.NewCounterMemoryStore())},
			health.Check{Name: "scheduler", Checker: health.SchedulerChecker(mockState{state: scheduler.StateRunning})},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, map[string]string{
			"redis":     "healthy",
			"counter":   "healthy",
			"scheduler": "healthy",
		}, resp.Body.Checks)
	})

	t.Run("returns degraded when redis is unhealthy", func(t *testing.T) {
		handler := health.NewHandler(health.Check{Name: "redis", Checker: &mockChecker{err: errors.New("connection refused")}})

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Checks["redis"])
	})

	t.Run("returns degraded when the store is poisoned", func(t *testing.T) {
		handler := health.NewHandler(health.Check{Name: "counter", Checker: health.StoreChecker(poisonedStore{})})

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Checks["counter"])
	})

	t.Run("returns degraded when the scheduler is draining", func(t *testing.T) {
		handler := health.NewHandler(
			health.Check{Name: "scheduler", Checker: health.SchedulerChecker(mockState{state: scheduler.StateDraining})},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
	})
}

func TestRedisChecker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Run("Ping returns nil when redis is available", func(t *testing.T) {
		checker := health.NewRedisChecker(client)

		err := checker.Ping(context.Background())

		assert.NoError(t, err)
	})
}

package health

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/guildbot/internal/scheduler"
)

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// AggregateReader is the part of the counter store the health check needs.
type AggregateReader interface {
	ReadAggregate(ctx context.Context) (uint64, error)
}

// StoreChecker reports the counter store unhealthy once it is poisoned or
// closed.
func StoreChecker(store AggregateReader) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		_, err := store.ReadAggregate(ctx)

		return err
	})
}

// StateReader exposes the scheduler state.
type StateReader interface {
	State() scheduler.State
}

// SchedulerChecker reports the scheduler unhealthy unless it is running.
func SchedulerChecker(s StateReader) Checker {
	return CheckerFunc(func(_ context.Context) error {
		if state := s.State(); state != scheduler.StateRunning {
			return fmt.Errorf("scheduler is %s", state)
		}

		return nil
	})
}

// Check is a named health check.
type Check struct {
	Name    string
	Checker Checker
}

// Handler handles health check operations.
type Handler struct {
	checks []Check
}

// NewHandler creates a new health handler.
func NewHandler(checks ...Check) *Handler {
	return &Handler{checks: checks}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		if err := c.Checker.Ping(ctx); err != nil {
			resp.Body.Checks[c.Name] = "unhealthy"
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Checks[c.Name] = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/serroba/guildbot/internal/platform"
	"github.com/serroba/guildbot/internal/ratelimit"
)

var (
	// ErrUnknownCommand is returned when no handler is registered for a name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrThrottled is returned when the author invoked too many commands.
	ErrThrottled = errors.New("command throttled")
	// ErrNotOwner is returned when a non-owner runs an owner-only command.
	ErrNotOwner = errors.New("command restricted to owners")
)

// Handler runs a single command invocation.
type Handler func(ctx context.Context, cmd platform.CommandInvoked) error

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	limiter  ratelimit.Limiter
}

// NewRegistry creates an empty registry. A nil limiter disables throttling.
func NewRegistry(limiter ratelimit.Limiter) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		limiter:  limiter,
	}
}

// Register adds or replaces the handler for name. Names are case-insensitive.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[normalize(name)] = h
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Handle runs the handler registered for cmd.Name.
func (r *Registry) Handle(ctx context.Context, cmd platform.CommandInvoked) error {
	r.mu.RLock()
	h, ok := r.handlers[normalize(cmd.Name)]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, string(cmd.Author))
		if err != nil {
			return err
		}

		if !allowed {
			return fmt.Errorf("%w: author %s", ErrThrottled, cmd.Author)
		}
	}

	return h(ctx, cmd)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

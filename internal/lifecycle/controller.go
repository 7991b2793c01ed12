package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Component represents a part of the process that can be started and shutdown.
type Component interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Hooks adapts a pair of functions to Component. Either may be nil.
type Hooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func() error
}

func (h Hooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}

	return h.OnStart(ctx)
}

func (h Hooks) Shutdown() error {
	if h.OnStop == nil {
		return nil
	}

	return h.OnStop()
}

// ErrShuttingDown is returned by Start once Shutdown has been called.
var ErrShuttingDown = errors.New("controller is shutting down")

type entry struct {
	name   string
	comp   Component
	intake bool
}

// Controller starts components in registration order and stops them in
// reverse, except intake components, which stop before everything else so no
// new work arrives while the rest drains.
type Controller struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
	started []entry

	stopping atomic.Bool
	err      error
	done     chan struct{}
}

// NewController creates an empty controller.
func NewController(logger *zap.Logger) *Controller {
	return &Controller{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Add registers a component.
func (c *Controller) Add(name string, comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry{name: name, comp: comp})
}

// AddIntake registers a component that feeds work into the process. It starts
// in registration order like any other but is stopped first.
func (c *Controller) AddIntake(name string, comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry{name: name, comp: comp, intake: true})
}

// Start starts every component in order. If one fails, the components already
// started are shut down in reverse and the error is returned.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopping.Load() {
		return ErrShuttingDown
	}

	for _, e := range c.entries {
		if err := e.comp.Start(ctx); err != nil {
			for i := len(c.started) - 1; i >= 0; i-- {
				_ = c.started[i].comp.Shutdown()
			}

			c.started = nil

			return fmt.Errorf("failed to start %s: %w", e.name, err)
		}

		c.started = append(c.started, e)

		c.logger.Info("component started", zap.String("component", e.name))
	}

	return nil
}

// Shutdown stops every started component: intake first, then the rest in
// reverse start order. Only the first call does any work; later calls wait
// for it to finish and return its result.
func (c *Controller) Shutdown() error {
	if !c.stopping.CompareAndSwap(false, true) {
		<-c.done

		return c.err
	}

	c.mu.Lock()
	order := stopOrder(c.started)
	c.mu.Unlock()

	c.logger.Info("shutting down", zap.Int("components", len(order)))

	var errs []error

	for _, e := range order {
		if err := e.comp.Shutdown(); err != nil {
			c.logger.Error("component shutdown error",
				zap.String("component", e.name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))

			continue
		}

		c.logger.Info("component stopped", zap.String("component", e.name))
	}

	c.err = errors.Join(errs...)
	close(c.done)

	c.logger.Info("shutdown complete")

	return c.err
}

// RequestShutdown starts Shutdown without waiting for it. Components that
// Shutdown waits on must use this rather than Shutdown.
func (c *Controller) RequestShutdown() {
	go func() {
		_ = c.Shutdown()
	}()
}

// Done is closed once Shutdown has finished.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown result. Valid after Done is closed.
func (c *Controller) Err() error {
	<-c.done

	return c.err
}

// Run starts all components, waits until ctx is cancelled or a shutdown is
// requested, then shuts everything down.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		_ = c.Shutdown()
	case <-c.done:
	}

	return c.Err()
}

func stopOrder(started []entry) []entry {
	order := make([]entry, 0, len(started))

	for i := len(started) - 1; i >= 0; i-- {
		if started[i].intake {
			order = append(order, started[i])
		}
	}

	for i := len(started) - 1; i >= 0; i-- {
		if !started[i].intake {
			order = append(order, started[i])
		}
	}

	return order
}

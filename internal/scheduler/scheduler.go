package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/serroba/guildbot/internal/metrics"
	"github.com/serroba/guildbot/internal/report"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyStarted is returned by Start unless the scheduler is stopped.
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrInvalidPeriod is returned by Start for a non-positive period.
	ErrInvalidPeriod = errors.New("scheduler period must be positive")
	// ErrDrainTimeout is returned by Shutdown when the in-flight tick had to
	// be cancelled.
	ErrDrainTimeout = errors.New("scheduler drain timed out")
)

const (
	// DefaultPeriod is the tick period used when none is configured.
	DefaultPeriod = 10 * time.Second
	// DefaultDrainTimeout bounds the wait for an in-flight tick on shutdown.
	DefaultDrainTimeout = 5 * time.Second
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Tick is one firing of the scheduler.
type Tick struct {
	Seq uint64
	At  time.Time
}

// Reader supplies the aggregate read on every tick.
type Reader interface {
	ReadAggregate(ctx context.Context) (uint64, error)
}

// TickFunc observes the outcome of a tick.
type TickFunc func(tick Tick, value uint64, err error)

// Scheduler reads the aggregate on a fixed period and forwards it to a sink.
// At most one tick runs at a time; a tick that is still running when the next
// one is due causes that next one to be skipped rather than queued.
type Scheduler struct {
	reader       Reader
	sink         report.Sink
	period       time.Duration
	drainTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger

	mu     sync.Mutex
	state  State
	cron   *cron.Cron
	cancel context.CancelFunc
	onTick TickFunc

	seq atomic.Uint64
}

// New creates a stopped scheduler. A non-positive drainTimeout selects
// DefaultDrainTimeout.
func New(
	reader Reader,
	sink report.Sink,
	period time.Duration,
	drainTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Scheduler {
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}

	return &Scheduler{
		reader:       reader,
		sink:         sink,
		period:       period,
		drainTimeout: drainTimeout,
		metrics:      m,
		logger:       logger,
	}
}

// OnTick registers an observer called after every tick. Set it before Start.
func (s *Scheduler) OnTick(fn TickFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onTick = fn
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Start begins ticking. The first tick fires one period after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrAlreadyStarted
	}

	if s.period <= 0 {
		return ErrInvalidPeriod
	}

	// Ticks are cancelled only by a forced stop, never by the caller's
	// context, so an in-flight tick can finish during drain.
	tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	logger := cronLogger{logger: s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(every{period: s.period}, cron.FuncJob(func() {
		s.tick(tickCtx)
	}))
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.state = StateRunning

	s.logger.Info("scheduler started", zap.Duration("period", s.period))

	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	t := Tick{Seq: s.seq.Add(1), At: time.Now()}

	value, err := s.reader.ReadAggregate(ctx)
	if err != nil {
		err = fmt.Errorf("read aggregate: %w", err)
	} else if reportErr := s.sink.Report(ctx, value); reportErr != nil {
		err = fmt.Errorf("report aggregate: %w", reportErr)
	}

	if err != nil {
		s.metrics.RecordTick("failed")
		s.logger.Warn("scheduler tick failed",
			zap.Uint64("seq", t.Seq),
			zap.Error(err),
		)
	} else {
		s.metrics.RecordTick("ok")
		s.logger.Debug("scheduler tick",
			zap.Uint64("seq", t.Seq),
			zap.Uint64("total", value),
		)
	}

	s.mu.Lock()
	onTick := s.onTick
	s.mu.Unlock()

	if onTick != nil {
		onTick(t, value, err)
	}
}

// Shutdown stops the timer and waits for an in-flight tick to finish. If it
// does not finish within the drain timeout the tick's context is cancelled
// and ErrDrainTimeout is returned. Calling Shutdown on a scheduler that is
// not running is a no-op.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()

		return nil
	}

	s.state = StateDraining
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	s.logger.Info("scheduler draining")

	var err error

	drained := c.Stop()

	select {
	case <-drained.Done():
	case <-time.After(s.drainTimeout):
		err = fmt.Errorf("%w after %s", ErrDrainTimeout, s.drainTimeout)
		s.logger.Warn("scheduler drain timed out, cancelling tick",
			zap.Duration("timeout", s.drainTimeout),
		)
	}

	cancel()

	s.mu.Lock()
	s.state = StateStopped
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")

	return err
}

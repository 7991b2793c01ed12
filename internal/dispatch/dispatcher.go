package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/guildbot/internal/commands"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/metrics"
	"github.com/serroba/guildbot/internal/platform"
	"go.uber.org/zap"
)

// ErrUnknownEvent is returned for events with no handler.
var ErrUnknownEvent = errors.New("unknown event")

// Event outcomes recorded in metrics.
const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomeIgnored = "ignored"
)

// CommandHandler runs command invocations.
type CommandHandler interface {
	Handle(ctx context.Context, cmd platform.CommandInvoked) error
}

// Dispatcher routes each platform event to exactly one handler. Dispatch is
// safe for concurrent use; the only shared state it touches is the counter
// store.
type Dispatcher struct {
	store    counter.Store
	client   platform.Client
	commands CommandHandler
	joinRole platform.RoleID
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New creates a new dispatcher. An empty joinRole disables role assignment
// on join.
func New(
	store counter.Store,
	client platform.Client,
	commands CommandHandler,
	joinRole platform.RoleID,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:    store,
		client:   client,
		commands: commands,
		joinRole: joinRole,
		metrics:  m,
		logger:   logger,
	}
}

// HandleEnvelope decodes a wire envelope and dispatches it. It is the intake
// consumer's handler. The message is already acked by the time this runs, so
// a decode error is only counted and returned for logging.
func (d *Dispatcher) HandleEnvelope(ctx context.Context, env *platform.Envelope) error {
	event, err := env.Decode()
	if err != nil {
		d.metrics.RecordEvent(env.Type, outcomeFailed)

		return err
	}

	return d.Dispatch(ctx, event)
}

// Dispatch handles one event. Handler failures are logged and never
// returned, so one bad event cannot affect the others.
func (d *Dispatcher) Dispatch(ctx context.Context, event platform.Event) error {
	switch ev := event.(type) {
	case platform.MessageReceived:
		d.messageReceived(ctx, ev)
	case platform.MemberJoined:
		d.memberJoined(ctx, ev)
	case platform.CommandInvoked:
		d.commandInvoked(ctx, ev)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}

	return nil
}

func (d *Dispatcher) messageReceived(ctx context.Context, ev platform.MessageReceived) {
	err := d.store.Increment(ctx, counter.Key(ev.Author))
	if err == nil {
		d.metrics.RecordEvent(ev.Type(), outcomeOK)

		return
	}

	d.metrics.RecordEvent(ev.Type(), outcomeFailed)

	if errors.Is(err, counter.ErrPoisoned) {
		d.logger.Error("counter store poisoned, message not counted",
			zap.String("author", string(ev.Author)),
			zap.Error(err),
		)

		return
	}

	d.logger.Warn("failed to count message",
		zap.String("author", string(ev.Author)),
		zap.Error(err),
	)
}

func (d *Dispatcher) memberJoined(ctx context.Context, ev platform.MemberJoined) {
	d.logger.Info("member joined",
		zap.String("guild", string(ev.Member.Guild)),
		zap.String("user", string(ev.Member.User)),
		zap.String("name", ev.Member.Name),
	)

	if d.joinRole == "" {
		d.metrics.RecordEvent(ev.Type(), outcomeIgnored)

		return
	}

	if err := d.client.AssignRole(ctx, ev.Member, d.joinRole); err != nil {
		d.metrics.RecordEvent(ev.Type(), outcomeFailed)
		d.logger.Warn("failed to assign join role",
			zap.String("user", string(ev.Member.User)),
			zap.String("role", string(d.joinRole)),
			zap.Error(err),
		)

		return
	}

	d.metrics.RecordEvent(ev.Type(), outcomeOK)
}

func (d *Dispatcher) commandInvoked(ctx context.Context, ev platform.CommandInvoked) {
	err := d.commands.Handle(ctx, ev)

	switch {
	case err == nil:
		d.metrics.RecordEvent(ev.Type(), outcomeOK)
	case errors.Is(err, commands.ErrUnknownCommand):
		d.metrics.RecordEvent(ev.Type(), outcomeIgnored)
		d.logger.Debug("ignoring unknown command", zap.String("command", ev.Name))
	case errors.Is(err, commands.ErrThrottled), errors.Is(err, commands.ErrNotOwner):
		d.metrics.RecordEvent(ev.Type(), outcomeIgnored)
		d.logger.Info("command rejected",
			zap.String("command", ev.Name),
			zap.String("author", string(ev.Author)),
			zap.Error(err),
		)
	default:
		d.metrics.RecordEvent(ev.Type(), outcomeFailed)
		d.logger.Warn("command failed",
			zap.String("command", ev.Name),
			zap.String("author", string(ev.Author)),
			zap.Error(err),
		)
	}
}

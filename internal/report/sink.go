package report

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSink wraps failures reported by a sink.
	ErrSink = errors.New("report sink failed")
	// ErrNoReport is returned when a sink has nothing recorded yet.
	ErrNoReport = errors.New("no report recorded")
)

// Sink receives the aggregate once per scheduler tick. Report is best-effort:
// callers log failures and never retry.
type Sink interface {
	Report(ctx context.Context, value uint64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, value uint64) error

func (f SinkFunc) Report(ctx context.Context, value uint64) error {
	return f(ctx, value)
}

// Named pairs a sink with the name used in errors and logs.
type Named struct {
	Name string
	Sink Sink
}

// Multi fans a report out to several sinks. Every sink is attempted; failures
// are joined so one broken sink does not hide the others.
type Multi []Named

func (m Multi) Report(ctx context.Context, value uint64) error {
	var errs []error

	for _, n := range m {
		if err := n.Sink.Report(ctx, value); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrSink, n.Name, err))
		}
	}

	return errors.Join(errs...)
}

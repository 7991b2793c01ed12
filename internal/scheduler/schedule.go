package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// every is a fixed-period cron.Schedule. Unlike cron.Every it does not round
// the period to whole seconds.
type every struct {
	period time.Duration
}

func (e every) Next(t time.Time) time.Time {
	return t.Add(e.period)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Compile-time checks.
var (
	_ cron.Schedule = every{}
	_ cron.Logger   = cronLogger{}
)

package report

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes each aggregate to the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new logging sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(_ context.Context, value uint64) error {
	s.logger.Info("total messages", zap.Uint64("total", value))

	return nil
}

package report

import (
	"context"

	"github.com/serroba/guildbot/internal/metrics"
)

// PrometheusSink exposes the aggregate as the guildbot_messages_total gauge.
type PrometheusSink struct {
	metrics *metrics.Metrics
}

// NewPrometheusSink creates a new Prometheus sink.
func NewPrometheusSink(m *metrics.Metrics) *PrometheusSink {
	return &PrometheusSink{metrics: m}
}

func (s *PrometheusSink) Report(_ context.Context, value uint64) error {
	s.metrics.SetMessagesTotal(value)

	return nil
}

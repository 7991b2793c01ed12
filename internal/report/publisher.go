package report

import (
	"context"
	"time"

	"github.com/serroba/guildbot/internal/messaging"
)

// TopicAggregate carries AggregateReported events.
const TopicAggregate = "stats.aggregate"

// AggregateReported is published once per tick.
type AggregateReported struct {
	Total      uint64    `json:"total"`
	ReportedAt time.Time `json:"reportedAt"`
}

// PublisherSink publishes each aggregate to the message bus.
type PublisherSink struct {
	publish messaging.Publish[AggregateReported]
}

// NewPublisherSink creates a new bus publishing sink.
func NewPublisherSink(publish messaging.Publish[AggregateReported]) *PublisherSink {
	return &PublisherSink{publish: publish}
}

func (s *PublisherSink) Report(ctx context.Context, value uint64) error {
	return s.publish(ctx, &AggregateReported{
		Total:      value,
		ReportedAt: time.Now().UTC(),
	})
}

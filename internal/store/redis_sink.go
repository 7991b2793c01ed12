package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/guildbot/internal/report"
)

// RedisSink writes each reported aggregate to Redis so other services can
// read the latest value without talking to the bot.
type RedisSink struct {
	client     *redis.Client
	valueKey   string // "stats:messages_total" for the latest aggregate
	updatedKey string // "stats:messages_total:updated_at" unix nanos of the report
}

// NewRedisSink creates a new Redis reporting sink.
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{
		client:     client,
		valueKey:   "stats:messages_total",
		updatedKey: "stats:messages_total:updated_at",
	}
}

// Report stores the aggregate and the time it was reported.
func (r *RedisSink) Report(ctx context.Context, value uint64) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.valueKey, value, 0)
	pipe.Set(ctx, r.updatedKey, time.Now().UnixNano(), 0)
	_, err := pipe.Exec(ctx)

	return err
}

// Compile-time check.
var _ report.Sink = (*RedisSink)(nil)

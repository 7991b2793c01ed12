package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for throttle data storage.
type Store interface {
	// Record records a hit for key and returns the number of hits inside the
	// trailing window, including this one. Expired hits are pruned.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

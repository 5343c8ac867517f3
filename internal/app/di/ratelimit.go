package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"natours/internal/shared/ratelimiter"
)

// NewRateCounter shares the API rate limit across instances through Redis.
// Without Redis each process counts on its own.
func NewRateCounter(rdb *redis.Client, window time.Duration) ratelimiter.Counter {
	if rdb != nil {
		return ratelimiter.NewRedisWindow(rdb, window, "ratelimit")
	}
	return ratelimiter.NewFixedWindow(window)
}

package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow はRedisのINCR/PEXPIREでヒット数を数えるCounterです。
// 全インスタンスで同じウィンドウを共有します。
type RedisWindow struct {
	rdb      redis.Cmdable
	interval time.Duration
	prefix   string
}

// NewRedisWindow は新しいRedisWindowのインスタンスを生成します。
// prefixが空の場合は "ratelimit" を使用します。
func NewRedisWindow(rdb redis.Cmdable, interval time.Duration, prefix string) *RedisWindow {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisWindow{rdb: rdb, interval: interval, prefix: prefix}
}

// Hit increments the key's counter; the first hit of a window sets its expiry.
func (rw *RedisWindow) Hit(ctx context.Context, key string) (int64, time.Duration, error) {
	k := rw.prefix + ":" + key

	count, err := rw.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := rw.rdb.PExpire(ctx, k, rw.interval).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit expire: %w", err)
		}
		return count, rw.interval, nil
	}

	ttl, err := rw.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit ttl: %w", err)
	}
	if ttl < 0 {
		// the key lost its expiry; start a new window
		if err := rw.rdb.PExpire(ctx, k, rw.interval).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = rw.interval
	}
	return count, ttl, nil
}

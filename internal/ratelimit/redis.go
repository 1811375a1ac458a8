package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by a shared Redis store,
// giving consistent counters across horizontally scaled instances. It
// implements the same window semantics as MemoryLimiter: the window is
// anchored at the first request and expires as a whole.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedisLimiter creates a limiter allowing max requests per window,
// keyed under the given prefix.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    max,
		window: window,
		prefix: "ratelimit",
	}
}

// Allow consumes one request slot for the key. The counter and its expiry
// are updated atomically via INCR + EXPIRE NX, so concurrent requests from
// one identifier cannot lose updates.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	// Anchor the window at the first request; NX leaves an existing
	// expiry untouched for subsequent requests in the same window.
	if err := rl.client.ExpireNX(ctx, redisKey, rl.window).Err(); err != nil {
		return Result{}, fmt.Errorf("rate limit expire: %w", err)
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	resetAt := time.Now().Add(ttl)

	if int(count) > rl.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Result{Allowed: true, Remaining: rl.max - int(count), ResetAt: resetAt}, nil
}

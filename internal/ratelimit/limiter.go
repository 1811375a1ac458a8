package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying,
// floored at the provided fallback when no usable reset time is known.
func (r Result) RetryAfter(fallback time.Duration) time.Duration {
	if r.Allowed {
		return 0
	}
	wait := time.Until(r.ResetAt)
	if wait <= 0 {
		return fallback
	}
	return wait
}

// Limiter bounds how many requests a single identifier may make per window.
// Implementations must be safe for concurrent use per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

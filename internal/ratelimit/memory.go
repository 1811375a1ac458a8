package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry tracks a single identifier's fixed window.
type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. The window is
// anchored at the first request from an identifier and replaced wholesale
// once it expires. State never survives a restart, and horizontally scaled
// deployments get independent counters per instance; use RedisLimiter when
// that matters.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	max    int
	window time.Duration
	now    func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// MemoryLimiterOption configures a MemoryLimiter.
type MemoryLimiterOption func(*MemoryLimiter)

// WithClock overrides the time source, used by tests to advance windows.
func WithClock(now func() time.Time) MemoryLimiterOption {
	return func(ml *MemoryLimiter) {
		ml.now = now
	}
}

// WithCleanupInterval sets how often expired entries are swept out.
// Set to 0 to disable the background sweep.
func WithCleanupInterval(interval time.Duration) MemoryLimiterOption {
	return func(ml *MemoryLimiter) {
		ml.cleanupInterval = interval
	}
}

// NewMemoryLimiter creates a limiter allowing max requests per window.
func NewMemoryLimiter(max int, window time.Duration, opts ...MemoryLimiterOption) *MemoryLimiter {
	ml := &MemoryLimiter{
		entries:         make(map[string]*entry),
		max:             max,
		window:          window,
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ml)
	}

	if ml.cleanupInterval > 0 {
		go ml.cleanupLoop()
	}

	return ml
}

// Allow consumes one request slot for the key. A fresh or expired window is
// replaced with count=1; an active window increments until the maximum is
// reached, after which requests are denied until the window resets.
func (ml *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()

	e, ok := ml.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(ml.window)}
		ml.entries[key] = e
		return Result{Allowed: true, Remaining: ml.max - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= ml.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Result{Allowed: true, Remaining: ml.max - e.count, ResetAt: e.resetAt}, nil
}

// Stop terminates the background sweep. Expired entries still self-correct
// on access; the sweep only bounds memory growth.
func (ml *MemoryLimiter) Stop() {
	ml.stopOnce.Do(func() {
		close(ml.stopCleanup)
	})
}

func (ml *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(ml.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ml.removeExpired()
		case <-ml.stopCleanup:
			return
		}
	}
}

func (ml *MemoryLimiter) removeExpired() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	for key, e := range ml.entries {
		if now.After(e.resetAt) {
			delete(ml.entries, key)
		}
	}
}

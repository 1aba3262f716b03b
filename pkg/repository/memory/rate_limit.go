package memory

import (
	"context"
	"sync"
	"time"
)

type windowCount struct {
	start time.Time
	count int
}

// rateLimiter is a fixed window counter per key
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	counts map[string]*windowCount
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		now:    now,
		counts: make(map[string]*windowCount),
	}
}

func (r *rateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now().Truncate(r.window)
	c, ok := r.counts[key]
	if !ok || !c.start.Equal(start) {
		c = &windowCount{start: start}
		r.counts[key] = c
		r.gc(start)
	}

	if c.count >= r.limit {
		return false, nil
	}
	c.count++
	return true, nil
}

// gc drops counters of windows that already ended
func (r *rateLimiter) gc(current time.Time) {
	for key, c := range r.counts {
		if c.start.Before(current) {
			delete(r.counts, key)
		}
	}
}

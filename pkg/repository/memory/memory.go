package memory

import (
	"sync"
	"time"

	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps vector indexes and rate limit counters in process memory.
// It is used for tests and single process deployments.
type Memory struct {
	index *vectorIndex
	now   func() time.Time

	mu       sync.Mutex
	limiters map[limiterKey]*rateLimiter
}

type limiterKey struct {
	limit  int
	window time.Duration
}

var _ interfaces.Repository = &Memory{}

// Option configures Memory
type Option func(*Memory)

// WithClock replaces the clock used for rate limit windows
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// WithReadyAfter makes a newly created index report not ready for the first
// n DescribeIndex calls.
func WithReadyAfter(n int) Option {
	return func(m *Memory) {
		m.index.readyAfter = n
	}
}

// New creates an empty Memory repository
func New(opts ...Option) *Memory {
	m := &Memory{
		index:    newVectorIndex(),
		now:      time.Now,
		limiters: make(map[limiterKey]*rateLimiter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) VectorIndex() interfaces.VectorIndex {
	return m.index
}

// RateLimiter returns the limiter for the given policy. Limiters with the
// same policy share counters.
func (m *Memory) RateLimiter(limit int, window time.Duration) interfaces.RateLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := limiterKey{limit: limit, window: window}
	if l, ok := m.limiters[key]; ok {
		return l
	}
	l := newRateLimiter(limit, window, m.now)
	m.limiters[key] = l
	return l
}

func (m *Memory) Close() error {
	return nil
}

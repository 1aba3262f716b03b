package interfaces

import "time"

// Repository bundles the storage-backed capabilities of one backend
type Repository interface {
	VectorIndex() VectorIndex

	// RateLimiter returns a fixed window limiter allowing limit calls per
	// window for each key
	RateLimiter(limit int, window time.Duration) RateLimiter

	Close() error
}

package usecase

import (
	"context"
	"time"
)

// WithSleep replaces the wait used between readiness polls
func WithSleep(fn func(ctx context.Context, d time.Duration) error) IndexOption {
	return func(uc *IndexUseCase) {
		uc.sleep = fn
	}
}

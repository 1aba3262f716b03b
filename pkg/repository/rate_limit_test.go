package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
)

func runRateLimiterTest(t *testing.T, newRepo func(t *testing.T, c *clock) interfaces.Repository) {
	t.Helper()

	t.Run("allows limit calls per window", func(t *testing.T) {
		c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
		repo := newRepo(t, c)
		rl := repo.RateLimiter(5, 24*time.Hour)
		ctx := context.Background()
		key := "198.51.100.7-" + time.Now().Format(time.RFC3339Nano)

		for range 5 {
			ok, err := rl.Allow(ctx, key)
			gt.NoError(t, err).Required()
			gt.Bool(t, ok).True()
		}

		ok, err := rl.Allow(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()

		// other keys are counted separately
		ok, err = rl.Allow(ctx, key+"-other")
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})

	t.Run("next window resets the counter", func(t *testing.T) {
		c := &clock{now: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)}
		repo := newRepo(t, c)
		rl := repo.RateLimiter(1, 24*time.Hour)
		ctx := context.Background()
		key := "203.0.113.9-" + time.Now().Format(time.RFC3339Nano)

		ok, err := rl.Allow(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()

		ok, err = rl.Allow(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).False()

		c.now = c.now.Add(2 * time.Minute)
		ok, err = rl.Allow(ctx, key)
		gt.NoError(t, err).Required()
		gt.Bool(t, ok).True()
	})

	t.Run("non positive limit disables limiting", func(t *testing.T) {
		repo := newRepo(t, &clock{now: time.Now()})
		rl := repo.RateLimiter(0, time.Hour)
		for range 10 {
			ok, err := rl.Allow(context.Background(), "k")
			gt.NoError(t, err).Required()
			gt.Bool(t, ok).True()
		}
	})
}

func TestMemoryRateLimiter(t *testing.T) {
	runRateLimiterTest(t, newMemoryRepository)
}

func TestFirestoreRateLimiter(t *testing.T) {
	runRateLimiterTest(t, newFirestoreRepository)
}

package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/urfave/cli/v3"
)

// Default rate limit policy for the question endpoint
const (
	DefaultRateLimit       = 5
	DefaultRateLimitWindow = 24 * time.Hour
)

// RateLimit holds CLI flags for the per client question quota
type RateLimit struct {
	limit  int
	window time.Duration
}

// Flags returns CLI flags for rate limit configuration
func (r *RateLimit) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "rate-limit",
			Usage:       "Questions allowed per client and window (0 disables limiting)",
			Category:    "Rate limit",
			Value:       DefaultRateLimit,
			Sources:     cli.EnvVars("DOCQA_RATE_LIMIT"),
			Destination: &r.limit,
		},
		&cli.DurationFlag{
			Name:        "rate-limit-window",
			Usage:       "Length of the fixed rate limit window",
			Category:    "Rate limit",
			Value:       DefaultRateLimitWindow,
			Sources:     cli.EnvVars("DOCQA_RATE_LIMIT_WINDOW"),
			Destination: &r.window,
		},
	}
}

func (r RateLimit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("limit", r.limit),
		slog.Duration("window", r.window),
	)
}

// Configure returns the limiter backed by repo, or nil when limiting is disabled
func (r *RateLimit) Configure(repo interfaces.Repository) (interfaces.RateLimiter, error) {
	if r.limit <= 0 {
		return nil, nil
	}
	if r.window <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "rate-limit-window must be positive", goerr.V(ValueKey, r.window))
	}
	return repo.RateLimiter(r.limit, r.window), nil
}

package usecase

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// Readiness wait defaults
const (
	DefaultSettle          = 10 * time.Second
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollInterval = 30 * time.Second
	DefaultMaxAttempts     = 20
)

// ReadinessPolicy controls how long EnsureIndex waits for a new index
type ReadinessPolicy struct {
	// Settle is waited once after creation before the first poll
	Settle time.Duration
	// PollInterval is the first delay between polls; it doubles up to MaxPollInterval
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	MaxAttempts     int
}

// DefaultReadinessPolicy returns the default wait policy
func DefaultReadinessPolicy() ReadinessPolicy {
	return ReadinessPolicy{
		Settle:          DefaultSettle,
		PollInterval:    DefaultPollInterval,
		MaxPollInterval: DefaultMaxPollInterval,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IndexUseCase provisions vector indexes
type IndexUseCase struct {
	index  interfaces.VectorIndex
	policy ReadinessPolicy
	sleep  sleepFunc
}

// IndexOption configures IndexUseCase
type IndexOption func(*IndexUseCase)

// WithReadinessPolicy replaces the readiness wait policy
func WithReadinessPolicy(p ReadinessPolicy) IndexOption {
	return func(uc *IndexUseCase) {
		uc.policy = p
	}
}

// NewIndexUseCase creates an IndexUseCase
func NewIndexUseCase(index interfaces.VectorIndex, opts ...IndexOption) *IndexUseCase {
	uc := &IndexUseCase{
		index:  index,
		policy: DefaultReadinessPolicy(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// EnsureIndex creates the index with cosine metric unless an index with
// the same name exists, then waits until it reports ready.
func (uc *IndexUseCase) EnsureIndex(ctx context.Context, name string, dimension int) error {
	logger := logging.From(ctx)

	names, err := uc.index.ListIndexes(ctx)
	if err != nil {
		return upstream(CapabilityListIndexes, err, "failed to list indexes")
	}
	if slices.Contains(names, name) {
		logger.Debug("index already exists", "index", name)
		return nil
	}

	spec := model.IndexSpec{Name: name, Dimension: dimension, Metric: model.MetricCosine}
	if err := spec.Validate(); err != nil {
		return goerr.Wrap(err, "invalid index spec", goerr.V(IndexNameKey, name))
	}

	if err := uc.index.CreateIndex(ctx, spec); err != nil {
		// created concurrently by another process; wait for it like our own
		if !errors.Is(err, model.ErrIndexExists) {
			return upstream(CapabilityCreateIndex, err, "failed to create index",
				goerr.V(IndexNameKey, name),
				goerr.V("dimension", dimension))
		}
	}
	logger.Info("index created, waiting for readiness", "index", name, "dimension", dimension)

	return uc.waitReady(ctx, name)
}

func (uc *IndexUseCase) waitReady(ctx context.Context, name string) error {
	p := uc.policy
	if err := uc.sleep(ctx, p.Settle); err != nil {
		return goerr.Wrap(err, "index readiness wait cancelled", goerr.V(IndexNameKey, name))
	}

	interval := p.PollInterval
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		status, err := uc.index.DescribeIndex(ctx, name)
		if err != nil {
			return upstream(CapabilityDescribeIndex, err, "failed to describe index",
				goerr.V(IndexNameKey, name),
				goerr.V("attempt", attempt))
		}
		if status.Ready {
			logging.From(ctx).Info("index is ready", "index", name, "attempts", attempt)
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}

		if err := uc.sleep(ctx, interval); err != nil {
			return goerr.Wrap(err, "index readiness wait cancelled", goerr.V(IndexNameKey, name))
		}
		interval *= 2
		if p.MaxPollInterval > 0 && interval > p.MaxPollInterval {
			interval = p.MaxPollInterval
		}
	}

	return goerr.Wrap(ErrIndexNotReady, "index did not become ready",
		goerr.V(IndexNameKey, name),
		goerr.V("attempts", p.MaxAttempts))
}

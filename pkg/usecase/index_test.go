package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/repository/memory"
	"github.com/secmon-lab/docqa/pkg/usecase"
)

type recordedSleep struct {
	waits []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

var testPolicy = usecase.ReadinessPolicy{
	Settle:          5 * time.Second,
	PollInterval:    time.Second,
	MaxPollInterval: 3 * time.Second,
	MaxAttempts:     5,
}

func TestEnsureIndex_ExistingIsNoop(t *testing.T) {
	index := &mockVectorIndex{names: []string{"other", "docs"}}
	sleeper := &recordedSleep{}
	uc := usecase.NewIndexUseCase(index, usecase.WithReadinessPolicy(testPolicy), usecase.WithSleep(sleeper.sleep))

	gt.NoError(t, uc.EnsureIndex(context.Background(), "docs", 768))
	gt.Array(t, index.created).Length(0)
	gt.Value(t, index.describes).Equal(0)
	gt.Array(t, sleeper.waits).Length(0)
}

func TestEnsureIndex_CreatesAndPolls(t *testing.T) {
	index := &mockVectorIndex{statuses: []bool{false, false, false, true}}
	sleeper := &recordedSleep{}
	uc := usecase.NewIndexUseCase(index, usecase.WithReadinessPolicy(testPolicy), usecase.WithSleep(sleeper.sleep))

	gt.NoError(t, uc.EnsureIndex(context.Background(), "docs", 768)).Required()

	gt.Value(t, index.created).Equal([]model.IndexSpec{{Name: "docs", Dimension: 768, Metric: model.MetricCosine}})
	gt.Value(t, index.describes).Equal(4)
	gt.Value(t, sleeper.waits).Equal([]time.Duration{
		5 * time.Second,
		time.Second,
		2 * time.Second,
		3 * time.Second,
	})
}

func TestEnsureIndex_Timeout(t *testing.T) {
	index := &mockVectorIndex{statuses: []bool{false, false, false, false, false, false}}
	sleeper := &recordedSleep{}
	uc := usecase.NewIndexUseCase(index, usecase.WithReadinessPolicy(testPolicy), usecase.WithSleep(sleeper.sleep))

	err := uc.EnsureIndex(context.Background(), "docs", 768)
	gt.Bool(t, errors.Is(err, usecase.ErrIndexNotReady)).True()
	gt.Value(t, index.describes).Equal(5)
	// settle plus one wait between each pair of polls
	gt.Array(t, sleeper.waits).Length(5)
}

func TestEnsureIndex_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("list", func(t *testing.T) {
		index := &mockVectorIndex{listFn: func(ctx context.Context) ([]string, error) { return nil, boom }}
		uc := usecase.NewIndexUseCase(index)

		var upErr *usecase.UpstreamError
		gt.Bool(t, errors.As(uc.EnsureIndex(context.Background(), "docs", 3), &upErr)).True()
		gt.Value(t, upErr.Capability).Equal(usecase.CapabilityListIndexes)
	})

	t.Run("create", func(t *testing.T) {
		index := &mockVectorIndex{createFn: func(ctx context.Context, spec model.IndexSpec) error { return boom }}
		uc := usecase.NewIndexUseCase(index)

		var upErr *usecase.UpstreamError
		gt.Bool(t, errors.As(uc.EnsureIndex(context.Background(), "docs", 3), &upErr)).True()
		gt.Value(t, upErr.Capability).Equal(usecase.CapabilityCreateIndex)
	})

	t.Run("describe", func(t *testing.T) {
		index := &mockVectorIndex{describeErr: boom}
		sleeper := &recordedSleep{}
		uc := usecase.NewIndexUseCase(index, usecase.WithSleep(sleeper.sleep))

		var upErr *usecase.UpstreamError
		gt.Bool(t, errors.As(uc.EnsureIndex(context.Background(), "docs", 3), &upErr)).True()
		gt.Value(t, upErr.Capability).Equal(usecase.CapabilityDescribeIndex)
	})

	t.Run("invalid name", func(t *testing.T) {
		index := &mockVectorIndex{}
		uc := usecase.NewIndexUseCase(index)
		gt.Error(t, uc.EnsureIndex(context.Background(), "Invalid Name", 3))
		gt.Array(t, index.created).Length(0)
	})

	t.Run("cancelled wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		uc := usecase.NewIndexUseCase(&mockVectorIndex{})
		gt.Bool(t, errors.Is(uc.EnsureIndex(ctx, "docs", 3), context.Canceled)).True()
	})
}

func TestEnsureIndex_ConcurrentCreateIsTolerated(t *testing.T) {
	index := &mockVectorIndex{
		createFn: func(ctx context.Context, spec model.IndexSpec) error {
			return model.ErrIndexExists
		},
	}
	uc := usecase.NewIndexUseCase(index, usecase.WithSleep((&recordedSleep{}).sleep))
	gt.NoError(t, uc.EnsureIndex(context.Background(), "docs", 3))
}

func TestEnsureIndex_WithMemoryIndex(t *testing.T) {
	repo := memory.New(memory.WithReadyAfter(2))
	sleeper := &recordedSleep{}
	uc := usecase.NewIndexUseCase(repo.VectorIndex(), usecase.WithReadinessPolicy(testPolicy), usecase.WithSleep(sleeper.sleep))
	ctx := context.Background()

	gt.NoError(t, uc.EnsureIndex(ctx, "docs", 3)).Required()
	names, err := repo.VectorIndex().ListIndexes(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, names).Equal([]string{"docs"})

	// second call is a no-op
	gt.NoError(t, uc.EnsureIndex(ctx, "docs", 3))
	gt.Array(t, sleeper.waits).Length(3)
}

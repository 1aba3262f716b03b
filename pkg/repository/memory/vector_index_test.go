package memory_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/repository/memory"
)

func TestReadyAfter(t *testing.T) {
	repo := memory.New(memory.WithReadyAfter(2))
	idx := repo.VectorIndex()
	ctx := context.Background()

	gt.NoError(t, idx.CreateIndex(ctx, model.IndexSpec{Name: "docs", Dimension: 2, Metric: model.MetricCosine})).Required()

	for _, want := range []bool{false, false, true} {
		st, err := idx.DescribeIndex(ctx, "docs")
		gt.NoError(t, err).Required()
		gt.Value(t, st.Ready).Equal(want)
	}
}

func TestQueryTieBreaksByID(t *testing.T) {
	repo := memory.New()
	idx := repo.VectorIndex()
	ctx := context.Background()

	gt.NoError(t, idx.CreateIndex(ctx, model.IndexSpec{Name: "docs", Dimension: 2, Metric: model.MetricCosine})).Required()
	gt.NoError(t, idx.Upsert(ctx, "docs", []*model.IndexRecord{
		{ID: "b", Values: model.Vector{1, 0}},
		{ID: "a", Values: model.Vector{2, 0}},
		{ID: "c", Values: model.Vector{0, 1}},
	})).Required()

	matches, err := idx.Query(ctx, "docs", model.VectorQuery{Vector: model.Vector{1, 0}, TopK: 10})
	gt.NoError(t, err).Required()
	gt.Array(t, matches).Length(3).Required()
	gt.Value(t, matches[0].ID).Equal("a")
	gt.Value(t, matches[1].ID).Equal("b")
	gt.Value(t, matches[2].ID).Equal("c")
}

func TestUpsertCopiesValues(t *testing.T) {
	repo := memory.New()
	idx := repo.VectorIndex()
	ctx := context.Background()

	gt.NoError(t, idx.CreateIndex(ctx, model.IndexSpec{Name: "docs", Dimension: 2, Metric: model.MetricCosine})).Required()
	values := model.Vector{1, 0}
	gt.NoError(t, idx.Upsert(ctx, "docs", []*model.IndexRecord{{ID: "a", Values: values}})).Required()
	values[0] = 0

	matches, err := idx.Query(ctx, "docs", model.VectorQuery{Vector: model.Vector{1, 0}, TopK: 1, IncludeValues: true})
	gt.NoError(t, err).Required()
	gt.Value(t, matches[0].Values).Equal(model.Vector{1, 0})
}

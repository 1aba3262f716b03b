package memory

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/model"
)

type index struct {
	spec    model.IndexSpec
	records map[string]*model.IndexRecord
	polls   int
}

type vectorIndex struct {
	mu         sync.RWMutex
	indexes    map[string]*index
	readyAfter int
}

func newVectorIndex() *vectorIndex {
	return &vectorIndex{
		indexes: make(map[string]*index),
	}
}

func copyRecord(r *model.IndexRecord) *model.IndexRecord {
	copied := *r
	copied.Values = slices.Clone(r.Values)
	return &copied
}

func (v *vectorIndex) ListIndexes(ctx context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.indexes))
	for name := range v.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (v *vectorIndex) CreateIndex(ctx context.Context, spec model.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.indexes[spec.Name]; ok {
		return goerr.Wrap(model.ErrIndexExists, "failed to create index", goerr.V("name", spec.Name))
	}
	v.indexes[spec.Name] = &index{
		spec:    spec,
		records: make(map[string]*model.IndexRecord),
	}
	return nil
}

func (v *vectorIndex) DescribeIndex(ctx context.Context, name string) (*model.IndexStatus, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx, ok := v.indexes[name]
	if !ok {
		return nil, goerr.Wrap(model.ErrIndexNotFound, "failed to describe index", goerr.V("name", name))
	}

	idx.polls++
	return &model.IndexStatus{
		Name:      idx.spec.Name,
		Dimension: idx.spec.Dimension,
		Metric:    idx.spec.Metric,
		Ready:     idx.polls > v.readyAfter,
	}, nil
}

func (v *vectorIndex) Upsert(ctx context.Context, indexName string, records []*model.IndexRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx, ok := v.indexes[indexName]
	if !ok {
		return goerr.Wrap(model.ErrIndexNotFound, "failed to upsert", goerr.V("index", indexName))
	}

	// validate the whole batch before writing any record
	for _, r := range records {
		if r.ID == "" {
			return goerr.New("record ID is empty", goerr.V("index", indexName))
		}
		if len(r.Values) != idx.spec.Dimension {
			return goerr.Wrap(model.ErrVectorDimension, "failed to upsert",
				goerr.V("index", indexName),
				goerr.V("id", r.ID),
				goerr.V("expected", idx.spec.Dimension),
				goerr.V("actual", len(r.Values)))
		}
	}

	for _, r := range records {
		idx.records[r.ID] = copyRecord(r)
	}
	return nil
}

func (v *vectorIndex) Query(ctx context.Context, indexName string, query model.VectorQuery) ([]*model.Match, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	idx, ok := v.indexes[indexName]
	if !ok {
		return nil, goerr.Wrap(model.ErrIndexNotFound, "failed to query", goerr.V("index", indexName))
	}
	if len(query.Vector) != idx.spec.Dimension {
		return nil, goerr.Wrap(model.ErrVectorDimension, "failed to query",
			goerr.V("index", indexName),
			goerr.V("expected", idx.spec.Dimension),
			goerr.V("actual", len(query.Vector)))
	}

	matches := make([]*model.Match, 0, len(idx.records))
	for _, r := range idx.records {
		m := &model.Match{
			ID:    r.ID,
			Score: cosineSimilarity(query.Vector, r.Values),
		}
		if query.IncludeValues {
			m.Values = slices.Clone(r.Values)
		}
		if query.IncludeMetadata {
			md := r.Metadata
			m.Metadata = &md
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > query.TopK {
		matches = matches[:query.TopK]
	}
	return matches, nil
}

func cosineSimilarity(a, b model.Vector) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

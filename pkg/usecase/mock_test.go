package usecase_test

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

type mockEmbedder struct {
	mu               sync.Mutex
	dim              int
	queries          []string
	documentCalls    [][]string
	embedQueryFn     func(ctx context.Context, text string) (model.Vector, error)
	embedDocumentsFn func(ctx context.Context, texts []string) ([]model.Vector, error)
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) (model.Vector, error) {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	m.mu.Unlock()
	if m.embedQueryFn != nil {
		return m.embedQueryFn(ctx, text)
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([]model.Vector, error) {
	m.mu.Lock()
	m.documentCalls = append(m.documentCalls, texts)
	m.mu.Unlock()
	if m.embedDocumentsFn != nil {
		return m.embedDocumentsFn(ctx, texts)
	}
	out := make([]model.Vector, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int {
	if m.dim == 0 {
		return 3
	}
	return m.dim
}

// vector derives a deterministic non-zero vector from text
func (m *mockEmbedder) vector(text string) model.Vector {
	v := make(model.Vector, m.Dimension())
	for i, r := range text {
		v[i%len(v)] += float32(r%17) + 1
	}
	v[0] += 1
	return v
}

type mockVectorIndex struct {
	mu          sync.Mutex
	names       []string
	created     []model.IndexSpec
	upserts     [][]*model.IndexRecord
	queries     []model.VectorQuery
	statuses    []bool
	describes   int
	listFn      func(ctx context.Context) ([]string, error)
	createFn    func(ctx context.Context, spec model.IndexSpec) error
	upsertFn    func(ctx context.Context, indexName string, records []*model.IndexRecord) error
	queryFn     func(ctx context.Context, indexName string, query model.VectorQuery) ([]*model.Match, error)
	describeErr error
}

func (m *mockVectorIndex) ListIndexes(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return m.names, nil
}

func (m *mockVectorIndex) CreateIndex(ctx context.Context, spec model.IndexSpec) error {
	m.created = append(m.created, spec)
	if m.createFn != nil {
		return m.createFn(ctx, spec)
	}
	return nil
}

func (m *mockVectorIndex) DescribeIndex(ctx context.Context, name string) (*model.IndexStatus, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	ready := true
	if m.describes < len(m.statuses) {
		ready = m.statuses[m.describes]
	}
	m.describes++
	return &model.IndexStatus{Name: name, Ready: ready}, nil
}

func (m *mockVectorIndex) Upsert(ctx context.Context, indexName string, records []*model.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertFn != nil {
		if err := m.upsertFn(ctx, indexName, records); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, records)
	return nil
}

func (m *mockVectorIndex) Query(ctx context.Context, indexName string, query model.VectorQuery) ([]*model.Match, error) {
	m.queries = append(m.queries, query)
	if m.queryFn != nil {
		return m.queryFn(ctx, indexName, query)
	}
	return nil, nil
}

func (m *mockVectorIndex) upsertSizes() []int {
	sizes := make([]int, len(m.upserts))
	for i, u := range m.upserts {
		sizes[i] = len(u)
	}
	return sizes
}

type mockGenerator struct {
	calls      int
	question   string
	contexts   []string
	generateFn func(ctx context.Context, question string, contexts []string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, question string, contexts []string) (string, error) {
	m.calls++
	m.question = question
	m.contexts = contexts
	if m.generateFn != nil {
		return m.generateFn(ctx, question, contexts)
	}
	return "generated answer", nil
}

type staticSource struct {
	name string
	docs []*model.Document
	err  error
}

func (s *staticSource) Name() string {
	return s.name
}

func (s *staticSource) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		for _, d := range s.docs {
			if !yield(d, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

// paragraphs builds content that the default chunker splits into exactly n chunks
func paragraphs(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strings.Repeat("x", 900)
	}
	return strings.Join(parts, "\n\n")
}

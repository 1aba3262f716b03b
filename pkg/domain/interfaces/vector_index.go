package interfaces

import (
	"context"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// VectorIndex is the client of an externally owned vector index service
type VectorIndex interface {
	// ListIndexes returns the names of all existing indexes
	ListIndexes(ctx context.Context) ([]string, error)

	// CreateIndex starts provisioning of a new index. The index may not be
	// ready when CreateIndex returns; use DescribeIndex to observe readiness.
	CreateIndex(ctx context.Context, spec model.IndexSpec) error

	// DescribeIndex returns the current state of an index
	DescribeIndex(ctx context.Context, name string) (*model.IndexStatus, error)

	// Upsert writes records, overwriting any record with the same ID
	Upsert(ctx context.Context, indexName string, records []*model.IndexRecord) error

	// Query returns at most TopK records ordered by descending similarity
	Query(ctx context.Context, indexName string, query model.VectorQuery) ([]*model.Match, error)
}

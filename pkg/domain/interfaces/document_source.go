package interfaces

import (
	"context"
	"iter"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// DocumentSource provides the documents to ingest
type DocumentSource interface {
	// Name identifies the source in logs
	Name() string

	// Documents yields every document of the source. Iteration stops at the
	// first error.
	Documents(ctx context.Context) iter.Seq2[*model.Document, error]
}

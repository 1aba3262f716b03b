package interfaces

import (
	"context"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// Embedder turns text into fixed-dimension vectors
type Embedder interface {
	// EmbedQuery embeds a single question
	EmbedQuery(ctx context.Context, text string) (model.Vector, error)

	// EmbedDocuments embeds texts in one call. The result has one vector per
	// input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([]model.Vector, error)

	// Dimension returns the dimension of every produced vector
	Dimension() int
}

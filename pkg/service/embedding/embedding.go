// Package embedding implements interfaces.Embedder on top of a gollem LLM client.
package embedding

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"golang.org/x/time/rate"
)

// DefaultDimension is the embedding dimension used when none is configured
const DefaultDimension = 768

type client struct {
	llmClient gollem.LLMClient
	dimension int
	limiter   *rate.Limiter
	maxBatch  int
}

var _ interfaces.Embedder = (*client)(nil)

// Option configures the embedding client
type Option func(*client)

// WithDimension sets the vector dimension requested from the model
func WithDimension(dim int) Option {
	return func(c *client) {
		if dim > 0 {
			c.dimension = dim
		}
	}
}

// WithRateLimit throttles calls to the embedding API to rps requests per
// second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMaxBatch splits EmbedDocuments input into requests of at most n texts
func WithMaxBatch(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.maxBatch = n
		}
	}
}

// New creates an Embedder backed by llmClient
func New(llmClient gollem.LLMClient, opts ...Option) interfaces.Embedder {
	c := &client{
		llmClient: llmClient,
		dimension: DefaultDimension,
		maxBatch:  100,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dimension returns the length of every vector produced by this client
func (c *client) Dimension() int {
	return c.dimension
}

// EmbedQuery embeds a single question
func (c *client) EmbedQuery(ctx context.Context, text string) (model.Vector, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts and returns vectors in input order
func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([]model.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]model.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += c.maxBatch {
		end := min(start+c.maxBatch, len(texts))
		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed documents",
				goerr.V("offset", start),
				goerr.V("total", len(texts)))
		}
		results = append(results, vectors...)
	}

	return results, nil
}

func (c *client) embed(ctx context.Context, texts []string) ([]model.Vector, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(err, "embedding rate limiter wait failed")
		}
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = Normalize(text)
	}

	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding",
			goerr.V("count", len(input)),
			goerr.V("dimension", c.dimension))
	}

	if len(embeddings) != len(input) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(input)),
			goerr.V("actual", len(embeddings)))
	}

	vectors := make([]model.Vector, len(embeddings))
	for i, emb := range embeddings {
		if len(emb) != c.dimension {
			return nil, goerr.New("embedding dimension mismatch",
				goerr.V("expected", c.dimension),
				goerr.V("actual", len(emb)),
				goerr.V("position", i))
		}
		vec := make(model.Vector, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	return vectors, nil
}

// Normalize replaces newlines with spaces before text is sent to the model
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	return strings.ReplaceAll(text, "\n", " ")
}

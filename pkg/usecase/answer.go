package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// DefaultTopK is the number of nearest chunks retrieved per question
const DefaultTopK = 10

// AnswerUseCase answers questions from the chunks stored in one index
type AnswerUseCase struct {
	embedder  interfaces.Embedder
	index     interfaces.VectorIndex
	generator interfaces.AnswerGenerator
	indexName string
	topK      int
}

// AnswerOption configures AnswerUseCase
type AnswerOption func(*AnswerUseCase)

// WithTopK sets the number of retrieved chunks
func WithTopK(k int) AnswerOption {
	return func(uc *AnswerUseCase) {
		if k > 0 {
			uc.topK = k
		}
	}
}

// NewAnswerUseCase creates an AnswerUseCase reading from indexName
func NewAnswerUseCase(embedder interfaces.Embedder, index interfaces.VectorIndex, generator interfaces.AnswerGenerator, indexName string, opts ...AnswerOption) *AnswerUseCase {
	uc := &AnswerUseCase{
		embedder:  embedder,
		index:     index,
		generator: generator,
		indexName: indexName,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Answer embeds question, retrieves the nearest chunks and generates an
// answer from them. Links hold every distinct source link in rank order.
// Zero matches is not an error and does not call the generator.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string) (*model.AnswerResult, error) {
	logger := logging.From(ctx)

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "answer cancelled before embedding")
	}
	started := time.Now()
	vector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		answersTotal.WithLabelValues("error").Inc()
		return nil, upstream(CapabilityEmbed, err, "failed to embed question")
	}
	observeStage(CapabilityEmbed, started)

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "answer cancelled before retrieval")
	}
	started = time.Now()
	matches, err := uc.index.Query(ctx, uc.indexName, model.VectorQuery{
		Vector:          vector,
		TopK:            uc.topK,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		answersTotal.WithLabelValues("error").Inc()
		return nil, upstream(CapabilityQuery, err, "failed to query index",
			goerr.V(IndexNameKey, uc.indexName),
			goerr.V("top_k", uc.topK))
	}
	observeStage(CapabilityQuery, started)

	if len(matches) == 0 {
		answersTotal.WithLabelValues("no_match").Inc()
		logger.Info("no matches for question", "index", uc.indexName)
		return &model.AnswerResult{
			Answer: model.NoMatchAnswer,
			Links:  []model.Link{},
		}, nil
	}

	contexts := make([]string, 0, len(matches))
	links := model.NewLinkSet()
	for _, m := range matches {
		if m.Metadata == nil {
			continue
		}
		contexts = append(contexts, m.Metadata.PageContent)
		links.Add(model.Link{Link: m.Metadata.DocLink, Title: m.Metadata.LinkTitle})
	}

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "answer cancelled before generation")
	}
	started = time.Now()
	answer, err := uc.generator.Generate(ctx, question, contexts)
	if err != nil {
		answersTotal.WithLabelValues("error").Inc()
		return nil, upstream(CapabilityGenerate, err, "failed to generate answer",
			goerr.V("contexts", len(contexts)))
	}
	observeStage(CapabilityGenerate, started)

	answersTotal.WithLabelValues("answered").Inc()
	logger.Info("question answered",
		"index", uc.indexName,
		"matches", len(matches),
		"links", links.Len())

	return &model.AnswerResult{
		Answer: answer,
		Links:  links.Links(),
	}, nil
}

package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/service/embedding"
	"github.com/secmon-lab/docqa/pkg/service/generator"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// pipeline holds the use cases of one command run and the resources they hold
type pipeline struct {
	*usecase.UseCases
	repo    interfaces.Repository
	closers []func()
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

type pipelineConfig struct {
	app     *config.AppConfig
	repo    *config.Repository
	llm     *config.LLM
	source  *config.Source
	answers bool
}

// buildPipeline wires repository, LLM, sources and use cases. Close must be
// called on the result even when the command fails later.
func buildPipeline(ctx context.Context, cfg pipelineConfig) (*pipeline, error) {
	p := &pipeline{}

	repo, err := cfg.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	p.repo = repo
	p.closers = append(p.closers, func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	})

	llmClient, err := cfg.llm.Configure(ctx)
	if err != nil {
		p.Close()
		return nil, goerr.Wrap(err, "failed to initialize LLM client")
	}

	app := cfg.app
	embedder := embedding.New(llmClient,
		embedding.WithDimension(app.Index.Dimension),
		embedding.WithRateLimit(app.Ingest.EmbedRPS, app.Ingest.EmbedBurst),
		embedding.WithMaxBatch(app.Ingest.EmbedMaxBatch),
	)

	ucCfg := usecase.Config{
		Embedder:  embedder,
		Index:     repo.VectorIndex(),
		IndexName: app.Index.Name,
	}

	if cfg.answers {
		tmpl, err := app.PromptTemplate()
		if err != nil {
			p.Close()
			return nil, err
		}
		gen, err := generator.New(llmClient,
			generator.WithPromptTemplate(tmpl),
			generator.WithSystemPrompt(app.Prompt.System),
		)
		if err != nil {
			p.Close()
			return nil, goerr.Wrap(err, "failed to initialize answer generator")
		}
		ucCfg.Generator = gen
	}

	if cfg.source != nil {
		sources, closer, err := cfg.source.Configure(ctx, app.Ingest.Extensions)
		if err != nil {
			p.Close()
			return nil, goerr.Wrap(err, "failed to initialize document sources")
		}
		p.closers = append(p.closers, closer)
		ucCfg.Sources = sources
	}

	chunk := app.Chunker()
	logging.From(ctx).Debug("chunker configured",
		"max_chunk_size", chunk.MaxChunkSize(),
		"lookback", chunk.Lookback())

	p.UseCases = usecase.New(ucCfg,
		usecase.WithIngestOptions(
			usecase.WithBatchSize(app.Ingest.BatchSize),
			usecase.WithEmbedConcurrency(app.Ingest.EmbedConcurrency),
			usecase.WithChunker(chunk),
		),
		usecase.WithAnswerOptions(usecase.WithTopK(app.Query.TopK)),
		usecase.WithIndexOptions(usecase.WithReadinessPolicy(app.ReadinessPolicy())),
	)

	return p, nil
}

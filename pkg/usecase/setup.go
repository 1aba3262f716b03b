package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// SetupResult summarises one setup run
type SetupResult struct {
	RunID string
	IngestResult
}

// SetupUseCase provisions the index and ingests every configured source
type SetupUseCase struct {
	index     *IndexUseCase
	ingest    *IngestUseCase
	sources   []interfaces.DocumentSource
	indexName string
	dimension int
}

// NewSetupUseCase creates a SetupUseCase
func NewSetupUseCase(index *IndexUseCase, ingest *IngestUseCase, sources []interfaces.DocumentSource, indexName string, dimension int) *SetupUseCase {
	return &SetupUseCase{
		index:     index,
		ingest:    ingest,
		sources:   sources,
		indexName: indexName,
		dimension: dimension,
	}
}

// Sources returns the configured document sources
func (uc *SetupUseCase) Sources() []interfaces.DocumentSource {
	return uc.sources
}

// NewRunID returns an identifier for a setup run
func NewRunID() string {
	return uuid.NewString()
}

// Setup ensures the index exists, then loads and ingests all documents
func (uc *SetupUseCase) Setup(ctx context.Context, runID string) (*SetupResult, error) {
	if runID == "" {
		runID = NewRunID()
	}
	logger := logging.From(ctx).With("run_id", runID)
	ctx = logging.With(ctx, logger)

	result := &SetupResult{RunID: runID}

	if err := uc.index.EnsureIndex(ctx, uc.indexName, uc.dimension); err != nil {
		return result, goerr.Wrap(err, "failed to ensure index", goerr.V("run_id", runID))
	}

	var docs []*model.Document
	for _, src := range uc.sources {
		n := 0
		for doc, err := range src.Documents(ctx) {
			if err != nil {
				return result, goerr.Wrap(err, "failed to load documents",
					goerr.V("run_id", runID),
					goerr.V("source", src.Name()))
			}
			docs = append(docs, doc)
			n++
		}
		logger.Info("documents loaded", "source", src.Name(), "count", n)
	}

	ingested, err := uc.ingest.Ingest(ctx, uc.indexName, docs)
	if ingested != nil {
		result.IngestResult = *ingested
	}
	if err != nil {
		return result, goerr.Wrap(err, "failed to ingest documents", goerr.V("run_id", runID))
	}

	return result, nil
}

package usecase

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/service/chunker"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the maximum number of records per upsert call
const DefaultBatchSize = 100

// IngestResult summarises one ingestion run
type IngestResult struct {
	Documents int
	Chunks    int
	Vectors   int
	Batches   int
}

// IngestUseCase turns documents into vector records and upserts them
type IngestUseCase struct {
	embedder    interfaces.Embedder
	index       interfaces.VectorIndex
	chunker     *chunker.Chunker
	batchSize   int
	concurrency int
}

// IngestOption configures IngestUseCase
type IngestOption func(*IngestUseCase)

// WithBatchSize sets the maximum number of records per upsert call
func WithBatchSize(size int) IngestOption {
	return func(uc *IngestUseCase) {
		if size > 0 {
			uc.batchSize = size
		}
	}
}

// WithEmbedConcurrency lets up to n documents be embedded while earlier
// documents are upserted. Upserts still happen in document order.
func WithEmbedConcurrency(n int) IngestOption {
	return func(uc *IngestUseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// WithChunker replaces the default chunker
func WithChunker(c *chunker.Chunker) IngestOption {
	return func(uc *IngestUseCase) {
		uc.chunker = c
	}
}

// NewIngestUseCase creates an IngestUseCase
func NewIngestUseCase(embedder interfaces.Embedder, index interfaces.VectorIndex, opts ...IngestOption) *IngestUseCase {
	uc := &IngestUseCase{
		embedder:    embedder,
		index:       index,
		chunker:     chunker.New(),
		batchSize:   DefaultBatchSize,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// preparedDocument holds the records of one document ready for upsert
type preparedDocument struct {
	doc     *model.ParsedDocument
	chunks  int
	records []*model.IndexRecord
}

// Ingest processes docs in order. Any embed or upsert error aborts the run;
// batches flushed before the error stay persisted.
func (uc *IngestUseCase) Ingest(ctx context.Context, indexName string, docs []*model.Document) (*IngestResult, error) {
	logger := logging.From(ctx)
	result := &IngestResult{}

	batch := newBatchBuilder(uc.batchSize, func(ctx context.Context, records []*model.IndexRecord) error {
		started := time.Now()
		if err := uc.index.Upsert(ctx, indexName, records); err != nil {
			return upstream(CapabilityUpsert, err, "failed to upsert records",
				goerr.V(IndexNameKey, indexName),
				goerr.V("records", len(records)),
				goerr.V("first_id", records[0].ID))
		}
		observeStage(CapabilityUpsert, started)
		upsertBatchesTotal.Inc()
		ingestVectorsTotal.Add(float64(len(records)))
		return nil
	})

	consume := func(p *preparedDocument) error {
		for _, r := range p.records {
			if err := batch.Add(ctx, r); err != nil {
				return goerr.Wrap(err, "failed to ingest document", goerr.V(SourceIDKey, p.doc.SourceID))
			}
		}
		// drain at the end of every document
		if err := batch.Flush(ctx); err != nil {
			return goerr.Wrap(err, "failed to ingest document", goerr.V(SourceIDKey, p.doc.SourceID))
		}

		result.Documents++
		result.Chunks += p.chunks
		ingestDocumentsTotal.Inc()
		logger.Debug("document ingested",
			"source_id", p.doc.SourceID,
			"chunks", p.chunks,
			"link", p.doc.Link)
		return nil
	}

	var err error
	if uc.concurrency <= 1 {
		err = uc.ingestSequential(ctx, docs, consume)
	} else {
		err = uc.ingestConcurrent(ctx, docs, consume)
	}

	result.Vectors = batch.records
	result.Batches = batch.batches
	if err != nil {
		return result, err
	}

	logger.Info("ingestion completed",
		"index", indexName,
		"documents", result.Documents,
		"chunks", result.Chunks,
		"vectors", result.Vectors,
		"batches", result.Batches)
	return result, nil
}

func (uc *IngestUseCase) ingestSequential(ctx context.Context, docs []*model.Document, consume func(*preparedDocument) error) error {
	for _, doc := range docs {
		p, err := uc.prepare(ctx, doc)
		if err != nil {
			return err
		}
		if err := consume(p); err != nil {
			return err
		}
	}
	return nil
}

// ingestConcurrent embeds up to uc.concurrency documents ahead while the
// caller goroutine upserts prepared documents in input order. A document
// holds its slot until it has been consumed, so at most uc.concurrency
// prepared documents are held in memory.
func (uc *IngestUseCase) ingestConcurrent(ctx context.Context, docs []*model.Document, consume func(*preparedDocument) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan *preparedDocument, len(docs))
	for i := range results {
		results[i] = make(chan *preparedDocument, 1)
	}
	slots := make(chan struct{}, uc.concurrency)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for i, doc := range docs {
			select {
			case slots <- struct{}{}:
			case <-egCtx.Done():
				return nil
			}
			eg.Go(func() error {
				p, err := uc.prepare(egCtx, doc)
				if err != nil {
					return err
				}
				results[i] <- p
				return nil
			})
		}
		return nil
	})

	for i := range docs {
		select {
		case p := <-results[i]:
			err := consume(p)
			<-slots
			if err != nil {
				cancel()
				_ = eg.Wait()
				return err
			}
		case <-egCtx.Done():
			if err := eg.Wait(); err != nil {
				return err
			}
			return goerr.Wrap(ctx.Err(), "ingestion cancelled")
		}
	}

	return eg.Wait()
}

// prepare parses, chunks and embeds one document
func (uc *IngestUseCase) prepare(ctx context.Context, doc *model.Document) (*preparedDocument, error) {
	parsed := doc.Parse()
	if !utf8.ValidString(parsed.Content) {
		logging.From(ctx).Warn("document is not valid UTF-8, invalid bytes become U+FFFD",
			"source_id", parsed.SourceID)
	}
	chunks := uc.chunker.Chunk(parsed.SourceID, parsed.Content)
	p := &preparedDocument{doc: parsed, chunks: len(chunks)}
	if len(chunks) == 0 {
		return p, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "ingestion cancelled", goerr.V(SourceIDKey, parsed.SourceID))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	started := time.Now()
	vectors, err := uc.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, upstream(CapabilityEmbed, err, "failed to embed chunks",
			goerr.V(SourceIDKey, parsed.SourceID),
			goerr.V("chunks", len(chunks)))
	}
	observeStage(CapabilityEmbed, started)

	if len(vectors) != len(chunks) {
		return nil, goerr.Wrap(ErrDimensionMismatch, "failed to embed chunks",
			goerr.V(SourceIDKey, parsed.SourceID),
			goerr.V("chunks", len(chunks)),
			goerr.V("vectors", len(vectors)))
	}

	p.records = make([]*model.IndexRecord, len(chunks))
	for i := range chunks {
		p.records[i] = model.NewIndexRecord(parsed, &chunks[i], vectors[i])
	}
	return p, nil
}

package usecase

import (
	"context"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// flushFunc receives a batch that the builder never touches again
type flushFunc func(ctx context.Context, batch []*model.IndexRecord) error

// batchBuilder accumulates records and flushes them in batches of at most size
type batchBuilder struct {
	size    int
	buf     []*model.IndexRecord
	flush   flushFunc
	batches int
	records int
}

func newBatchBuilder(size int, flush flushFunc) *batchBuilder {
	return &batchBuilder{
		size:  size,
		buf:   make([]*model.IndexRecord, 0, size),
		flush: flush,
	}
}

// Add appends a record and flushes when the batch is full
func (b *batchBuilder) Add(ctx context.Context, record *model.IndexRecord) error {
	b.buf = append(b.buf, record)
	if len(b.buf) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush hands over the pending records, if any. The buffer is replaced
// rather than reset so the flushed slice stays immutable.
func (b *batchBuilder) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}

	batch := b.buf
	b.buf = make([]*model.IndexRecord, 0, b.size)

	if err := b.flush(ctx, batch); err != nil {
		return err
	}
	b.batches++
	b.records += len(batch)
	return nil
}

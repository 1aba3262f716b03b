package usecase

import (
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
)

// UseCases wires the pipelines over one set of capabilities
type UseCases struct {
	Ingest *IngestUseCase
	Answer *AnswerUseCase
	Index  *IndexUseCase
	Setup  *SetupUseCase
}

// Config holds the capabilities and tuning shared by the pipelines
type Config struct {
	Embedder  interfaces.Embedder
	Index     interfaces.VectorIndex
	Generator interfaces.AnswerGenerator
	Sources   []interfaces.DocumentSource
	IndexName string
}

type options struct {
	ingest []IngestOption
	answer []AnswerOption
	index  []IndexOption
}

type Option func(*options)

func WithIngestOptions(opts ...IngestOption) Option {
	return func(o *options) {
		o.ingest = append(o.ingest, opts...)
	}
}

func WithAnswerOptions(opts ...AnswerOption) Option {
	return func(o *options) {
		o.answer = append(o.answer, opts...)
	}
}

func WithIndexOptions(opts ...IndexOption) Option {
	return func(o *options) {
		o.index = append(o.index, opts...)
	}
}

func New(cfg Config, opts ...Option) *UseCases {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	uc := &UseCases{
		Ingest: NewIngestUseCase(cfg.Embedder, cfg.Index, o.ingest...),
		Index:  NewIndexUseCase(cfg.Index, o.index...),
	}
	if cfg.Generator != nil {
		uc.Answer = NewAnswerUseCase(cfg.Embedder, cfg.Index, cfg.Generator, cfg.IndexName, o.answer...)
	}
	uc.Setup = NewSetupUseCase(uc.Index, uc.Ingest, cfg.Sources, cfg.IndexName, cfg.Embedder.Dimension())

	return uc
}

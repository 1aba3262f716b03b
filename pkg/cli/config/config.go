package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/docqa/pkg/service/chunker"
	"github.com/secmon-lab/docqa/pkg/service/embedding"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// DefaultIndexName is used when the configuration file names no index
const DefaultIndexName = "docqa"

// Duration is a time.Duration written as a string such as "10s" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V(ValueKey, string(text)))
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// AppConfig represents the domain tuning loaded from a TOML file
type AppConfig struct {
	Index     IndexConfig     `toml:"index"`
	Ingest    IngestConfig    `toml:"ingest"`
	Query     QueryConfig     `toml:"query"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Prompt    PromptConfig    `toml:"prompt"`

	path string
}

// IndexConfig names the vector index and how long to wait for it
type IndexConfig struct {
	Name            string   `toml:"name"`
	Dimension       int      `toml:"dimension"`
	Settle          Duration `toml:"settle"`
	PollInterval    Duration `toml:"poll_interval"`
	MaxPollInterval Duration `toml:"max_poll_interval"`
	MaxAttempts     int      `toml:"max_attempts"`
}

// IngestConfig tunes chunking, batching and embedding throughput
type IngestConfig struct {
	ChunkSize        int      `toml:"chunk_size"`
	BatchSize        int      `toml:"batch_size"`
	EmbedConcurrency int      `toml:"embed_concurrency"`
	EmbedMaxBatch    int      `toml:"embed_max_batch"`
	EmbedRPS         float64  `toml:"embed_rps"`
	EmbedBurst       int      `toml:"embed_burst"`
	Extensions       []string `toml:"extensions"`
	// ChunkLookback is how far before the size limit a separator is searched.
	// Zero means half of ChunkSize.
	ChunkLookback int `toml:"chunk_lookback"`
	// Separators replaces the chunker's separator priority list
	Separators []string `toml:"separators"`
}

// QueryConfig tunes retrieval and the answer response
type QueryConfig struct {
	TopK     int `toml:"top_k"`
	MaxLinks int `toml:"max_links"`
}

// RateLimitConfig is the response sent to callers over quota
type RateLimitConfig struct {
	Message string       `toml:"message"`
	Links   []LinkConfig `toml:"links"`
}

type LinkConfig struct {
	Link  string `toml:"link"`
	Title string `toml:"title"`
}

// PromptConfig overrides the answer prompt
type PromptConfig struct {
	// TemplateFile is a text/template file rendered with .Question and .Contexts
	TemplateFile string `toml:"template_file"`
	System       string `toml:"system"`
}

// DefaultAppConfig returns the configuration used when no file is given
func DefaultAppConfig() AppConfig {
	policy := usecase.DefaultReadinessPolicy()
	return AppConfig{
		Index: IndexConfig{
			Name:            DefaultIndexName,
			Dimension:       embedding.DefaultDimension,
			Settle:          Duration{policy.Settle},
			PollInterval:    Duration{policy.PollInterval},
			MaxPollInterval: Duration{policy.MaxPollInterval},
			MaxAttempts:     policy.MaxAttempts,
		},
		Ingest: IngestConfig{
			ChunkSize:        chunker.DefaultMaxChunkSize,
			BatchSize:        usecase.DefaultBatchSize,
			EmbedConcurrency: 1,
			EmbedMaxBatch:    100,
		},
		Query: QueryConfig{
			TopK:     usecase.DefaultTopK,
			MaxLinks: 3,
		},
	}
}

// Flags returns CLI flags for the configuration file
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("DOCQA_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the file given by --config over the defaults. Without a
// path the defaults are used as they are.
func (a *AppConfig) Configure() error {
	path := a.path
	if path == "" {
		*a = DefaultAppConfig()
		return nil
	}

	loaded, err := LoadAppConfiguration(path)
	if err != nil {
		return err
	}
	*a = *loaded
	a.path = path
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Index.Name == "" {
		return goerr.Wrap(ErrInvalidConfig, "index name is required", goerr.V(FieldKey, "index.name"))
	}
	if a.Index.Dimension <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "index dimension must be positive",
			goerr.V(FieldKey, "index.dimension"), goerr.V(ValueKey, a.Index.Dimension))
	}
	if a.Index.MaxAttempts <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "index max_attempts must be positive",
			goerr.V(FieldKey, "index.max_attempts"), goerr.V(ValueKey, a.Index.MaxAttempts))
	}
	if a.Index.PollInterval.Duration <= 0 || a.Index.MaxPollInterval.Duration < a.Index.PollInterval.Duration {
		return goerr.Wrap(ErrInvalidConfig, "poll_interval must be positive and not above max_poll_interval",
			goerr.V(FieldKey, "index.poll_interval"))
	}
	if a.Ingest.ChunkSize < 2 {
		return goerr.Wrap(ErrInvalidConfig, "chunk_size must be at least 2",
			goerr.V(FieldKey, "ingest.chunk_size"), goerr.V(ValueKey, a.Ingest.ChunkSize))
	}
	if a.Ingest.ChunkLookback < 0 || a.Ingest.ChunkLookback > a.Ingest.ChunkSize {
		return goerr.Wrap(ErrInvalidConfig, "chunk_lookback must be between 0 and chunk_size",
			goerr.V(FieldKey, "ingest.chunk_lookback"), goerr.V(ValueKey, a.Ingest.ChunkLookback))
	}
	for i, sep := range a.Ingest.Separators {
		if sep == "" {
			return goerr.Wrap(ErrInvalidConfig, "separator must not be empty",
				goerr.V(FieldKey, "ingest.separators"), goerr.V("index", i))
		}
	}
	if a.Ingest.BatchSize <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "batch_size must be positive",
			goerr.V(FieldKey, "ingest.batch_size"), goerr.V(ValueKey, a.Ingest.BatchSize))
	}
	if a.Ingest.EmbedRPS < 0 {
		return goerr.Wrap(ErrInvalidConfig, "embed_rps must not be negative",
			goerr.V(FieldKey, "ingest.embed_rps"), goerr.V(ValueKey, a.Ingest.EmbedRPS))
	}
	if a.Query.TopK <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "top_k must be positive",
			goerr.V(FieldKey, "query.top_k"), goerr.V(ValueKey, a.Query.TopK))
	}
	if a.Query.MaxLinks <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_links must be positive",
			goerr.V(FieldKey, "query.max_links"), goerr.V(ValueKey, a.Query.MaxLinks))
	}
	for i, l := range a.RateLimit.Links {
		if l.Link == "" || l.Title == "" {
			return goerr.Wrap(ErrInvalidConfig, "rate limit link needs link and title",
				goerr.V(FieldKey, "rate_limit.links"), goerr.V("index", i))
		}
	}
	return nil
}

// ReadinessPolicy returns the index wait policy
func (a *AppConfig) ReadinessPolicy() usecase.ReadinessPolicy {
	return usecase.ReadinessPolicy{
		Settle:          a.Index.Settle.Duration,
		PollInterval:    a.Index.PollInterval.Duration,
		MaxPollInterval: a.Index.MaxPollInterval.Duration,
		MaxAttempts:     a.Index.MaxAttempts,
	}
}

// Chunker builds the document chunker from the ingest settings
func (a *AppConfig) Chunker() *chunker.Chunker {
	opts := []chunker.Option{chunker.WithMaxChunkSize(a.Ingest.ChunkSize)}
	if a.Ingest.ChunkLookback > 0 {
		opts = append(opts, chunker.WithLookback(a.Ingest.ChunkLookback))
	}
	if len(a.Ingest.Separators) > 0 {
		opts = append(opts, chunker.WithSeparators(a.Ingest.Separators...))
	}
	return chunker.New(opts...)
}

// PromptTemplate reads the configured template file. It returns "" when no
// file is configured.
func (a *AppConfig) PromptTemplate() (string, error) {
	if a.Prompt.TemplateFile == "" {
		return "", nil
	}
	// #nosec G304 - path comes from the operator's configuration
	data, err := os.ReadFile(a.Prompt.TemplateFile)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read prompt template", goerr.V("path", a.Prompt.TemplateFile))
	}
	return string(data), nil
}

// LoadAppConfiguration loads the application configuration from a TOML file.
// Keys missing from the file keep their defaults.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	"github.com/secmon-lab/docqa/pkg/service/chunker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docqa.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	t.Run("full configuration", func(t *testing.T) {
		path := writeConfig(t, `
[index]
name = "morpho-docs"
dimension = 1536
settle = "5s"
poll_interval = "1s"
max_poll_interval = "8s"
max_attempts = 5

[ingest]
chunk_size = 800
batch_size = 50
embed_concurrency = 4
embed_rps = 2.5
embed_burst = 3
extensions = [".md"]

[query]
top_k = 5
max_links = 2

[rate_limit]
message = "Come back tomorrow"

  [[rate_limit.links]]
  link = "https://docs.example"
  title = "Docs"

[prompt]
system = "Answer briefly."
`)
		cfg, err := config.LoadAppConfiguration(path)
		gt.NoError(t, err).Required()

		gt.Value(t, cfg.Index.Name).Equal("morpho-docs")
		gt.Value(t, cfg.Index.Dimension).Equal(1536)
		gt.Value(t, cfg.Ingest.ChunkSize).Equal(800)
		gt.Value(t, cfg.Ingest.EmbedRPS).Equal(2.5)
		gt.Value(t, cfg.Ingest.Extensions).Equal([]string{".md"})
		gt.Value(t, cfg.Query.TopK).Equal(5)
		gt.Value(t, cfg.Query.MaxLinks).Equal(2)
		gt.Value(t, cfg.RateLimit.Message).Equal("Come back tomorrow")
		gt.Value(t, cfg.RateLimit.Links).Equal([]config.LinkConfig{{Link: "https://docs.example", Title: "Docs"}})
		gt.Value(t, cfg.Prompt.System).Equal("Answer briefly.")

		policy := cfg.ReadinessPolicy()
		gt.Value(t, policy.Settle).Equal(5 * time.Second)
		gt.Value(t, policy.PollInterval).Equal(time.Second)
		gt.Value(t, policy.MaxPollInterval).Equal(8 * time.Second)
		gt.Value(t, policy.MaxAttempts).Equal(5)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		path := writeConfig(t, `
[index]
name = "only-name"
`)
		cfg, err := config.LoadAppConfiguration(path)
		gt.NoError(t, err).Required()

		defaults := config.DefaultAppConfig()
		gt.Value(t, cfg.Index.Name).Equal("only-name")
		gt.Value(t, cfg.Index.Dimension).Equal(defaults.Index.Dimension)
		gt.Value(t, cfg.Ingest).Equal(defaults.Ingest)
		gt.Value(t, cfg.Query).Equal(defaults.Query)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, config.ErrConfigNotFound)).True()
	})

	t.Run("invalid duration", func(t *testing.T) {
		path := writeConfig(t, `
[index]
settle = "soon"
`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})

	t.Run("broken TOML", func(t *testing.T) {
		path := writeConfig(t, `[index`)
		_, err := config.LoadAppConfiguration(path)
		gt.Error(t, err)
	})
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *config.AppConfig)
	}{
		{name: "empty index name", modify: func(c *config.AppConfig) { c.Index.Name = "" }},
		{name: "zero dimension", modify: func(c *config.AppConfig) { c.Index.Dimension = 0 }},
		{name: "zero attempts", modify: func(c *config.AppConfig) { c.Index.MaxAttempts = 0 }},
		{name: "poll above max", modify: func(c *config.AppConfig) {
			c.Index.PollInterval = config.Duration{Duration: time.Minute}
			c.Index.MaxPollInterval = config.Duration{Duration: time.Second}
		}},
		{name: "tiny chunk", modify: func(c *config.AppConfig) { c.Ingest.ChunkSize = 1 }},
		{name: "negative lookback", modify: func(c *config.AppConfig) { c.Ingest.ChunkLookback = -1 }},
		{name: "lookback above chunk size", modify: func(c *config.AppConfig) {
			c.Ingest.ChunkLookback = c.Ingest.ChunkSize + 1
		}},
		{name: "empty separator", modify: func(c *config.AppConfig) { c.Ingest.Separators = []string{"\n", ""} }},
		{name: "zero batch", modify: func(c *config.AppConfig) { c.Ingest.BatchSize = 0 }},
		{name: "negative rps", modify: func(c *config.AppConfig) { c.Ingest.EmbedRPS = -1 }},
		{name: "zero top k", modify: func(c *config.AppConfig) { c.Query.TopK = 0 }},
		{name: "zero max links", modify: func(c *config.AppConfig) { c.Query.MaxLinks = 0 }},
		{name: "link without title", modify: func(c *config.AppConfig) {
			c.RateLimit.Links = []config.LinkConfig{{Link: "https://x.example"}}
		}},
	}

	base := config.DefaultAppConfig()
	gt.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultAppConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
		})
	}
}

func TestAppConfigConfigure(t *testing.T) {
	t.Run("no path uses defaults", func(t *testing.T) {
		cfg := config.NewAppConfigForTest("")
		gt.NoError(t, cfg.Configure()).Required()
		gt.Value(t, cfg.Index.Name).Equal(config.DefaultIndexName)
	})

	t.Run("path is loaded", func(t *testing.T) {
		path := writeConfig(t, "[query]\ntop_k = 3\n")
		cfg := config.NewAppConfigForTest(path)
		gt.NoError(t, cfg.Configure()).Required()
		gt.Value(t, cfg.Query.TopK).Equal(3)
	})
}

func TestAppConfigChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := config.DefaultAppConfig()
		c := cfg.Chunker()
		gt.Value(t, c.MaxChunkSize()).Equal(cfg.Ingest.ChunkSize)
		gt.Value(t, c.Lookback()).Equal(cfg.Ingest.ChunkSize / 2)
	})

	t.Run("ingest settings are applied", func(t *testing.T) {
		path := writeConfig(t, `
[ingest]
chunk_size = 6
chunk_lookback = 4
separators = ["|"]
`)
		cfg, err := config.LoadAppConfiguration(path)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.Ingest.Separators).Equal([]string{"|"})

		c := cfg.Chunker()
		gt.Value(t, c.MaxChunkSize()).Equal(6)
		gt.Value(t, c.Lookback()).Equal(4)
		gt.Value(t, c.Split("aaaa|bbbb|cccc")).Equal([]chunker.Span{{Start: 0, End: 5}, {Start: 5, End: 10}, {Start: 10, End: 14}})
	})
}

func TestPromptTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.md")
	gt.NoError(t, os.WriteFile(path, []byte("Q: {{ .Question }}"), 0600)).Required()

	cfg := config.DefaultAppConfig()
	tmpl, err := cfg.PromptTemplate()
	gt.NoError(t, err)
	gt.Value(t, tmpl).Equal("")

	cfg.Prompt.TemplateFile = path
	tmpl, err = cfg.PromptTemplate()
	gt.NoError(t, err)
	gt.Value(t, tmpl).Equal("Q: {{ .Question }}")

	cfg.Prompt.TemplateFile = filepath.Join(dir, "missing.md")
	_, err = cfg.PromptTemplate()
	gt.Error(t, err)
}

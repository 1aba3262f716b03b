package config

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/service/notion"
	"github.com/secmon-lab/docqa/pkg/service/source"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Source holds CLI flags for the document sources read by setup
type Source struct {
	dirs      []string
	gcsBucket string
	gcsPrefix string

	notionToken       string
	notionDatabases   []string
	notionEditedSince time.Duration
}

// Flags returns CLI flags for document source configuration
func (s *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "source-dir",
			Usage:       "Local directory of documents to ingest (repeatable)",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_SOURCE_DIR"),
			Destination: &s.dirs,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket of documents to ingest",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_GCS_BUCKET"),
			Destination: &s.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix inside the Cloud Storage bucket",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_GCS_PREFIX"),
			Destination: &s.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_NOTION_API_TOKEN"),
			Destination: &s.notionToken,
		},
		&cli.StringSliceFlag{
			Name:        "notion-database-id",
			Usage:       "Notion database ID or URL whose pages are ingested (repeatable)",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_NOTION_DATABASE_ID"),
			Destination: &s.notionDatabases,
		},
		&cli.DurationFlag{
			Name:        "notion-edited-within",
			Usage:       "Only ingest Notion pages edited within this duration (0 means all)",
			Category:    "Source",
			Sources:     cli.EnvVars("DOCQA_NOTION_EDITED_WITHIN"),
			Destination: &s.notionEditedSince,
		},
	}
}

func (s Source) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("dirs", s.dirs),
		slog.String("gcs_bucket", s.gcsBucket),
		slog.String("gcs_prefix", s.gcsPrefix),
		slog.Bool("notion_token_set", s.notionToken != ""),
		slog.Any("notion_databases", s.notionDatabases),
	)
}

// Configure builds every configured document source. exts limits the file
// extensions of directory and bucket sources. The returned function releases
// the clients the sources hold.
func (s *Source) Configure(ctx context.Context, exts []string) ([]interfaces.DocumentSource, func(), error) {
	var sources []interfaces.DocumentSource
	closer := func() {}

	for _, dir := range s.dirs {
		sources = append(sources, source.NewDirectory(dir, exts...))
	}

	if s.gcsBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", s.gcsBucket))
		}
		closer = func() {
			if err := client.Close(); err != nil {
				logging.Default().Error("failed to close storage client", "error", err.Error())
			}
		}
		sources = append(sources, source.NewGCS(client, s.gcsBucket, s.gcsPrefix, exts...))
	}

	if len(s.notionDatabases) > 0 {
		if s.notionToken == "" {
			closer()
			return nil, nil, goerr.Wrap(ErrMissingCredential, "notion-api-token is required for notion-database-id",
				goerr.V(FieldKey, "notion-api-token"))
		}
		svc, err := notion.New(s.notionToken)
		if err != nil {
			closer()
			return nil, nil, goerr.Wrap(err, "failed to create notion service")
		}

		var opts []source.NotionOption
		if s.notionEditedSince > 0 {
			opts = append(opts, source.WithEditedSince(time.Now().Add(-s.notionEditedSince)))
		}
		for _, db := range s.notionDatabases {
			id, err := notion.ParseDatabaseID(db)
			if err != nil {
				closer()
				return nil, nil, goerr.Wrap(err, "invalid notion-database-id", goerr.V(ValueKey, db))
			}
			sources = append(sources, source.NewNotion(svc, id, opts...))
		}
	}

	return sources, closer, nil
}

package source

import (
	"context"
	"iter"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/utils/safe"
	"google.golang.org/api/iterator"
)

// GCS reads documents from objects in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	exts   []string
}

var _ interfaces.DocumentSource = (*GCS)(nil)

// NewGCS creates a source reading objects under prefix in bucket
func NewGCS(client *storage.Client, bucket, prefix string, exts ...string) *GCS {
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
		exts:   normalizeExts(exts),
	}
}

// Name returns the source description used in logs
func (g *GCS) Name() string {
	return "gs://" + g.bucket + "/" + g.prefix
}

// Documents yields objects in listing order. SourceID is gs://bucket/object.
func (g *GCS) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		bkt := g.client.Bucket(g.bucket)
		it := bkt.Objects(ctx, &storage.Query{Prefix: g.prefix})

		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to list objects",
					goerr.V("bucket", g.bucket),
					goerr.V("prefix", g.prefix)))
				return
			}
			if !matchExt(attrs.Name, g.exts) {
				continue
			}

			r, err := bkt.Object(attrs.Name).NewReader(ctx)
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to open object",
					goerr.V("bucket", g.bucket),
					goerr.V("object", attrs.Name)))
				return
			}
			data, err := safe.ReadAll(ctx, r)
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to read object",
					goerr.V("bucket", g.bucket),
					goerr.V("object", attrs.Name)))
				return
			}

			doc := &model.Document{
				SourceID: "gs://" + g.bucket + "/" + attrs.Name,
				Body:     string(data),
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

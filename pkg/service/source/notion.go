package source

import (
	"context"
	"iter"
	"time"

	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/service/notion"
)

// Notion reads documents from pages of a Notion database
type Notion struct {
	svc        notion.Service
	databaseID string
	since      time.Time
}

var _ interfaces.DocumentSource = (*Notion)(nil)

// NotionOption configures the Notion source
type NotionOption func(*Notion)

// WithEditedSince limits pages to those edited on or after t
func WithEditedSince(t time.Time) NotionOption {
	return func(n *Notion) {
		n.since = t
	}
}

// NewNotion creates a source for the pages of databaseID
func NewNotion(svc notion.Service, databaseID string, opts ...NotionOption) *Notion {
	n := &Notion{svc: svc, databaseID: databaseID}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the source description used in logs
func (n *Notion) Name() string {
	return "notion:" + n.databaseID
}

// Documents yields one document per page. The body carries the page URL and
// title as the Link and Title header lines followed by the page as Markdown.
func (n *Notion) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		for page, err := range n.svc.QueryPages(ctx, n.databaseID, n.since) {
			if err != nil {
				yield(nil, err)
				return
			}

			doc := &model.Document{
				SourceID: "notion/" + page.ID,
				Body:     model.NewDocumentBody(page.URL, page.Title, page.Blocks.ToMarkdown()),
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

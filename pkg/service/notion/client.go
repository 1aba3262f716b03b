package notion

import (
	"context"
	"iter"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

type client struct {
	api *notionapi.Client
}

// New creates a Notion service with the provided integration token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}

	return &client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // HTTP 429
		),
	}, nil
}

// QueryPages iterates database pages with their block tree
func (c *client) QueryPages(ctx context.Context, dbID string, since time.Time) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		var cursor notionapi.Cursor

		for {
			req := &notionapi.DatabaseQueryRequest{
				StartCursor: cursor,
				PageSize:    100,
			}
			if !since.IsZero() {
				onOrAfter := notionapi.Date(since)
				req.Filter = &notionapi.TimestampFilter{
					Timestamp: "last_edited_time",
					LastEditedTime: &notionapi.DateFilterCondition{
						OnOrAfter: &onOrAfter,
					},
				}
			}

			resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to query database", goerr.V("dbID", dbID)))
				return
			}

			for _, obj := range resp.Results {
				blocks, err := c.fetchBlocks(ctx, obj.ID.String())
				if err != nil {
					yield(nil, goerr.Wrap(err, "failed to fetch page blocks", goerr.V("pageID", obj.ID)))
					return
				}

				page := &Page{
					ID:             obj.ID.String(),
					Title:          pageTitle(obj.Properties),
					URL:            obj.URL,
					Blocks:         blocks,
					LastEditedTime: time.Time(obj.LastEditedTime),
				}
				if !yield(page, nil) {
					return
				}
			}

			if !resp.HasMore {
				return
			}
			cursor = resp.NextCursor
		}
	}
}

func (c *client) fetchBlocks(ctx context.Context, blockID string) (Blocks, error) {
	var blocks Blocks
	var cursor notionapi.Cursor

	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("blockID", blockID))
		}

		for _, obj := range resp.Results {
			block := convertBlock(obj)
			if obj.GetHasChildren() {
				children, err := c.fetchBlocks(ctx, obj.GetID().String())
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			return blocks, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

func convertBlock(obj notionapi.Block) Block {
	block := Block{Type: obj.GetType()}

	switch b := obj.(type) {
	case *notionapi.ParagraphBlock:
		block.Text = b.Paragraph.RichText
	case *notionapi.Heading1Block:
		block.Text = b.Heading1.RichText
	case *notionapi.Heading2Block:
		block.Text = b.Heading2.RichText
	case *notionapi.Heading3Block:
		block.Text = b.Heading3.RichText
	case *notionapi.BulletedListItemBlock:
		block.Text = b.BulletedListItem.RichText
	case *notionapi.NumberedListItemBlock:
		block.Text = b.NumberedListItem.RichText
	case *notionapi.QuoteBlock:
		block.Text = b.Quote.RichText
	case *notionapi.CalloutBlock:
		block.Text = b.Callout.RichText
	case *notionapi.ToggleBlock:
		block.Text = b.Toggle.RichText
	case *notionapi.CodeBlock:
		block.Text = b.Code.RichText
		block.Language = b.Code.Language
	case *notionapi.ToDoBlock:
		block.Text = b.ToDo.RichText
		block.Checked = b.ToDo.Checked
	}

	return block
}

// pageTitle returns the text of the page's title property
func pageTitle(props notionapi.Properties) string {
	for _, prop := range props {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return PlainText(title.Title)
		}
	}
	return ""
}

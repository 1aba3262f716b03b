package notion

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Service reads pages of a Notion database
type Service interface {
	// QueryPages iterates pages of a database. A zero since returns every
	// page, otherwise only pages edited on or after since.
	QueryPages(ctx context.Context, dbID string, since time.Time) iter.Seq2[*Page, error]
}

// Page is a Notion page with its rendered block tree
type Page struct {
	ID             string
	Title          string
	URL            string
	Blocks         Blocks
	LastEditedTime time.Time
}

// Block is a Notion block reduced to what is needed to render text
type Block struct {
	Type     notionapi.BlockType
	Text     []notionapi.RichText
	Language string
	Checked  bool
	Children Blocks
}

// Blocks is a sequence of sibling blocks
type Blocks []Block

var linePrefix = map[notionapi.BlockType]string{
	notionapi.BlockTypeHeading1:         "# ",
	notionapi.BlockTypeHeading2:         "## ",
	notionapi.BlockTypeHeading3:         "### ",
	notionapi.BlockTypeBulletedListItem: "- ",
	notionapi.BlockTypeQuote:            "> ",
	notionapi.BlockTypeCallout:          "> ",
}

// ToMarkdown renders blocks as Markdown text
func (b Blocks) ToMarkdown() string {
	var sb strings.Builder
	b.render(&sb, 0)
	return sb.String()
}

func (b Blocks) render(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	number := 0

	for _, block := range b {
		if block.Type == notionapi.BlockTypeNumberedListItem {
			number++
		} else {
			number = 0
		}

		text := PlainText(block.Text)
		switch block.Type {
		case notionapi.BlockTypeNumberedListItem:
			fmt.Fprintf(sb, "%s%d. %s\n", indent, number, text)
		case notionapi.BlockTypeToDo:
			mark := " "
			if block.Checked {
				mark = "x"
			}
			fmt.Fprintf(sb, "%s- [%s] %s\n", indent, mark, text)
		case notionapi.BlockTypeCode:
			fmt.Fprintf(sb, "%s```%s\n%s%s\n%s```\n", indent, block.Language, indent, text, indent)
		case notionapi.BlockTypeDivider:
			sb.WriteString(indent + "---\n")
		default:
			if prefix, ok := linePrefix[block.Type]; ok {
				sb.WriteString(indent + prefix + text + "\n")
			} else if text != "" {
				sb.WriteString(indent + text + "\n")
			}
		}

		if len(block.Children) > 0 {
			block.Children.render(sb, depth+1)
		}
	}
}

// PlainText joins rich text segments, keeping links as Markdown links
func PlainText(texts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range texts {
		if rt.Href != "" {
			fmt.Fprintf(&sb, "[%s](%s)", rt.PlainText, rt.Href)
			continue
		}
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

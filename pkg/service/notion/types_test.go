package notion_test

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/service/notion"
)

func text(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func TestBlocks_ToMarkdown(t *testing.T) {
	tests := []struct {
		name   string
		blocks notion.Blocks
		want   string
	}{
		{
			name:   "paragraph",
			blocks: notion.Blocks{{Type: notionapi.BlockTypeParagraph, Text: text("This is a paragraph")}},
			want:   "This is a paragraph\n",
		},
		{
			name: "headings",
			blocks: notion.Blocks{
				{Type: notionapi.BlockTypeHeading1, Text: text("H1")},
				{Type: notionapi.BlockTypeHeading2, Text: text("H2")},
				{Type: notionapi.BlockTypeHeading3, Text: text("H3")},
			},
			want: "# H1\n## H2\n### H3\n",
		},
		{
			name: "numbered list restarts after other block",
			blocks: notion.Blocks{
				{Type: notionapi.BlockTypeNumberedListItem, Text: text("one")},
				{Type: notionapi.BlockTypeNumberedListItem, Text: text("two")},
				{Type: notionapi.BlockTypeParagraph, Text: text("break")},
				{Type: notionapi.BlockTypeNumberedListItem, Text: text("again")},
			},
			want: "1. one\n2. two\nbreak\n1. again\n",
		},
		{
			name: "nested bullets",
			blocks: notion.Blocks{
				{
					Type: notionapi.BlockTypeBulletedListItem,
					Text: text("parent"),
					Children: notion.Blocks{
						{Type: notionapi.BlockTypeBulletedListItem, Text: text("child")},
					},
				},
			},
			want: "- parent\n  - child\n",
		},
		{
			name: "code and todo",
			blocks: notion.Blocks{
				{Type: notionapi.BlockTypeCode, Text: text("go run ."), Language: "bash"},
				{Type: notionapi.BlockTypeToDo, Text: text("done"), Checked: true},
				{Type: notionapi.BlockTypeToDo, Text: text("open")},
			},
			want: "```bash\ngo run .\n```\n- [x] done\n- [ ] open\n",
		},
		{
			name: "empty paragraph and divider",
			blocks: notion.Blocks{
				{Type: notionapi.BlockTypeParagraph},
				{Type: notionapi.BlockTypeDivider},
			},
			want: "---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.blocks.ToMarkdown()).Equal(tt.want)
		})
	}
}

func TestPlainText(t *testing.T) {
	got := notion.PlainText([]notionapi.RichText{
		{PlainText: "see "},
		{PlainText: "docs", Href: "https://docs.example.com"},
	})
	gt.Value(t, got).Equal("see [docs](https://docs.example.com)")
}

func TestNew(t *testing.T) {
	_, err := notion.New("")
	gt.Error(t, err)

	svc, err := notion.New("test-token")
	gt.NoError(t, err)
	gt.Value(t, svc).NotNil()
}

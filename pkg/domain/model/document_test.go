package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/docqa/pkg/domain/model"
)

func TestDocument_Parse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		link    string
		title   string
		content string
	}{
		{
			name:    "full header",
			body:    "Link: L\nTitle: T\nBODY line 1\nBODY line 2",
			link:    "L",
			title:   "T",
			content: "BODY line 1\nBODY line 2",
		},
		{
			name: "single header line",
			body: "Link: L",
			link: "L",
		},
		{
			name:  "two header lines without content",
			body:  "Link: L\nTitle: T",
			link:  "L",
			title: "T",
		},
		{
			name:    "carriage returns on header lines",
			body:    "Link: L\r\nTitle: T\r\nBODY",
			link:    "L",
			title:   "T",
			content: "BODY",
		},
		{
			name:    "missing labels keep the line as is",
			body:    "https://docs.example.com\nGuide\ntext",
			link:    "https://docs.example.com",
			title:   "Guide",
			content: "text",
		},
		{
			name: "empty body",
			body: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &model.Document{SourceID: "docs/a.txt", Body: tt.body}
			parsed := doc.Parse()
			gt.Value(t, parsed.SourceID).Equal("docs/a.txt")
			gt.Value(t, parsed.Link).Equal(tt.link)
			gt.Value(t, parsed.Title).Equal(tt.title)
			gt.Value(t, parsed.Content).Equal(tt.content)
		})
	}
}

func TestNewDocumentBody(t *testing.T) {
	body := model.NewDocumentBody("https://x", "X", "content\nmore")
	parsed := (&model.Document{Body: body}).Parse()
	gt.Value(t, parsed.Link).Equal("https://x")
	gt.Value(t, parsed.Title).Equal("X")
	gt.Value(t, parsed.Content).Equal("content\nmore")
}

package model

import "strings"

const (
	// LinkPrefix is the label stripped from the first line of a document body
	LinkPrefix = "Link: "
	// TitlePrefix is the label stripped from the second line of a document body
	TitlePrefix = "Title: "
)

// Document is a unit of ingestable content. Body is expected to carry a link
// reference on line 1, a title reference on line 2 and the indexed content
// on the remaining lines.
type Document struct {
	SourceID string
	Body     string
}

// ParsedDocument is a Document split into its citation header and content
type ParsedDocument struct {
	SourceID string
	Link     string
	Title    string
	Content  string
}

// Parse splits the document body into link, title and content. Missing
// header lines are not an error; the corresponding field is left empty.
func (d *Document) Parse() *ParsedDocument {
	lines := strings.Split(d.Body, "\n")

	parsed := &ParsedDocument{SourceID: d.SourceID}
	if len(lines) > 0 {
		parsed.Link = strings.TrimPrefix(strings.TrimSuffix(lines[0], "\r"), LinkPrefix)
	}
	if len(lines) > 1 {
		parsed.Title = strings.TrimPrefix(strings.TrimSuffix(lines[1], "\r"), TitlePrefix)
	}
	if len(lines) > 2 {
		parsed.Content = strings.Join(lines[2:], "\n")
	}

	return parsed
}

// NewDocumentBody builds a body in the layout Parse expects
func NewDocumentBody(link, title, content string) string {
	var sb strings.Builder
	sb.WriteString(LinkPrefix)
	sb.WriteString(link)
	sb.WriteString("\n")
	sb.WriteString(TitlePrefix)
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(content)
	return sb.String()
}

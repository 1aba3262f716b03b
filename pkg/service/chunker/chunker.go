// Package chunker splits document content into bounded, non-overlapping
// chunks that prefer natural text boundaries.
//
// Content is measured in runes. Each byte of an invalid UTF-8 sequence
// becomes one U+FFFD rune, so chunk text is always valid UTF-8 but does not
// reproduce such bytes. Callers that need to know should check with
// utf8.ValidString before chunking.
package chunker

import (
	"strings"
	"unicode"

	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// DefaultMaxChunkSize is the default chunk length in characters
const DefaultMaxChunkSize = 1000

// defaultSeparators are tried in order; the first one found inside the
// lookback window decides the cut.
var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Span is a half-open range of rune offsets into the split content
type Span struct {
	Start int
	End   int
}

// Chunker is a deterministic text splitter
type Chunker struct {
	maxChunkSize int
	lookback     int
	separators   [][]rune
}

// Option configures the Chunker
type Option func(*Chunker)

// WithMaxChunkSize sets the maximum chunk length in characters
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxChunkSize = size
		}
	}
}

// WithLookback sets how many characters before the hard limit are searched
// for a separator. Defaults to half of the max chunk size.
func WithLookback(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.lookback = n
		}
	}
}

// WithSeparators replaces the separator priority list
func WithSeparators(seps ...string) Option {
	return func(c *Chunker) {
		c.separators = toRunes(seps)
	}
}

// New creates a Chunker
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		separators:   toRunes(defaultSeparators),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.lookback <= 0 || c.lookback > c.maxChunkSize {
		c.lookback = c.maxChunkSize / 2
	}

	return c
}

// MaxChunkSize returns the configured maximum chunk length
func (c *Chunker) MaxChunkSize() int {
	return c.maxChunkSize
}

// Lookback returns how many characters before the size limit are searched for
// a separator
func (c *Chunker) Lookback() int {
	return c.lookback
}

// Split partitions content into consecutive spans of at most MaxChunkSize
// characters. The spans cover content exactly, without gaps or overlap.
func (c *Chunker) Split(content string) []Span {
	runes := []rune(content)
	return c.split(runes)
}

func (c *Chunker) split(runes []rune) []Span {
	var spans []Span
	for start := 0; start < len(runes); {
		end := start + c.maxChunkSize
		if end >= len(runes) {
			spans = append(spans, Span{Start: start, End: len(runes)})
			break
		}

		end = c.findCut(runes, start, end)
		spans = append(spans, Span{Start: start, End: end})
		start = end
	}
	return spans
}

// findCut returns the end offset of the chunk beginning at start, given the
// hard limit. The cut lands right after the highest priority separator whose
// last occurrence ends inside the lookback window.
func (c *Chunker) findCut(runes []rune, start, limit int) int {
	floor := limit - c.lookback
	if floor <= start {
		floor = start + 1
	}

	for _, sep := range c.separators {
		if len(sep) == 0 {
			continue
		}
		for end := limit; end >= floor && end-len(sep) >= start; end-- {
			if hasSuffixAt(runes, end, sep) {
				return end
			}
		}
	}

	return limit
}

// Chunk splits content and returns trimmed chunks with dense indexes.
// Whitespace-only spans are dropped. Empty content yields nil.
func (c *Chunker) Chunk(sourceID, content string) []model.Chunk {
	runes := []rune(content)
	spans := c.split(runes)
	if len(spans) == 0 {
		return nil
	}

	chunks := make([]model.Chunk, 0, len(spans))
	line := 1
	offset := 0
	for _, span := range spans {
		// advance the line counter to the span start
		line += countNewlines(runes[offset:span.Start])
		offset = span.Start

		raw := runes[span.Start:span.End]
		lead := 0
		for lead < len(raw) && unicode.IsSpace(raw[lead]) {
			lead++
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		from := line + countNewlines(raw[:lead])
		to := from + countNewlines([]rune(text))
		chunks = append(chunks, model.Chunk{
			SourceID: sourceID,
			Index:    len(chunks),
			Text:     text,
			Loc:      model.Loc{From: from, To: to},
		})
	}

	return chunks
}

func hasSuffixAt(runes []rune, end int, sep []rune) bool {
	begin := end - len(sep)
	if begin < 0 || end > len(runes) {
		return false
	}
	for i, r := range sep {
		if runes[begin+i] != r {
			return false
		}
	}
	return true
}

func countNewlines(runes []rune) int {
	n := 0
	for _, r := range runes {
		if r == '\n' {
			n++
		}
	}
	return n
}

func toRunes(seps []string) [][]rune {
	out := make([][]rune, 0, len(seps))
	for _, s := range seps {
		out = append(out, []rune(s))
	}
	return out
}

package model

import (
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Vector is an embedding. All vectors stored in or queried against one index
// share the same dimension.
type Vector []float32

// Loc is the 1-based line range a chunk covers inside its document content
type Loc struct {
	From int
	To   int
}

type locJSON struct {
	Lines struct {
		From int `json:"from"`
		To   int `json:"to"`
	} `json:"lines"`
}

// String encodes the location as {"lines":{"from":N,"to":M}}
func (l Loc) String() string {
	var v locJSON
	v.Lines.From = l.From
	v.Lines.To = l.To
	data, _ := json.Marshal(v)
	return string(data)
}

// ParseLoc decodes a location produced by Loc.String
func ParseLoc(s string) (Loc, error) {
	if s == "" {
		return Loc{}, nil
	}
	var v locJSON
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return Loc{}, goerr.Wrap(err, "failed to parse chunk location", goerr.V("loc", s))
	}
	return Loc{From: v.Lines.From, To: v.Lines.To}, nil
}

// Chunk is a bounded-length slice of one document's content
type Chunk struct {
	SourceID string
	Index    int
	Text     string
	Loc      Loc
}

// RecordID derives the stable vector identifier "{sourceID}_{index}"
func (c *Chunk) RecordID() string {
	return RecordID(c.SourceID, c.Index)
}

// RecordID derives the stable vector identifier of the index-th chunk of sourceID
func RecordID(sourceID string, index int) string {
	return fmt.Sprintf("%s_%d", sourceID, index)
}

// Metadata is the citation payload attached to each stored vector
type Metadata struct {
	PageContent string
	DocLink     string
	LinkTitle   string
	TxtPath     string
	ChunkIndex  int
	Loc         Loc
}

// IndexRecord is the persisted unit of a vector index. Writing a record with
// an existing ID overwrites the previous one.
type IndexRecord struct {
	ID       string
	Values   Vector
	Metadata Metadata
}

// NewIndexRecord builds the record for a chunk of a parsed document
func NewIndexRecord(doc *ParsedDocument, chunk *Chunk, values Vector) *IndexRecord {
	return &IndexRecord{
		ID:     chunk.RecordID(),
		Values: values,
		Metadata: Metadata{
			PageContent: chunk.Text,
			DocLink:     doc.Link,
			LinkTitle:   doc.Title,
			TxtPath:     doc.SourceID,
			ChunkIndex:  chunk.Index,
			Loc:         chunk.Loc,
		},
	}
}

// Match is a retrieval result. Metadata and Values are only populated when
// the query asked for them.
type Match struct {
	ID       string
	Score    float64
	Values   Vector
	Metadata *Metadata
}

// VectorQuery is a top-K nearest neighbour request
type VectorQuery struct {
	Vector          Vector
	TopK            int
	IncludeMetadata bool
	IncludeValues   bool
}

// Validate checks the query can be served
func (q *VectorQuery) Validate() error {
	if len(q.Vector) == 0 {
		return goerr.New("query vector is empty")
	}
	if q.TopK <= 0 {
		return goerr.New("topK must be positive", goerr.V("topK", q.TopK))
	}
	return nil
}

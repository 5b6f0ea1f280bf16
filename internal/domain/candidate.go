package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind distinguishes where a candidate came from.
type SourceKind string

const (
	// SourceDocument marks chunks retrieved from the document store.
	SourceDocument SourceKind = "document"
	// SourceWeb marks results returned by the web-search provider.
	SourceWeb SourceKind = "web"
)

// Candidate is a single retrieved passage flowing through the ranking pipeline.
// All per-dimension signals are in [0,1]; a value outside that range is treated
// as malformed and the dimension is skipped for that candidate.
type Candidate struct {
	ID         uuid.UUID
	Source     SourceKind
	DocumentID string // source document for chunks
	Title      string
	Content    string
	URL        string
	Domain     string // registrable domain for web results

	// Score is the current aggregate score. Filtering penalties, authority
	// adjustment and reranking all rewrite it in place on a per-request copy.
	Score float64

	// Relevance signals.
	Semantic float64
	Keyword  float64

	// Filter dimension signals.
	Quality   float64
	Topical   float64
	Freshness float64
	Authority float64

	Length      int // content length in characters
	Position    int // original retrieval rank (0-indexed)
	PublishedAt time.Time
}

// SourceKey identifies the origin used for the per-source diversity cap:
// the domain for web results, the source document for chunks.
func (c Candidate) SourceKey() string {
	if c.Source == SourceWeb {
		return c.Domain
	}
	return c.DocumentID
}

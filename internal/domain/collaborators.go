package domain

import "context"

// DocumentRetriever fetches up to limit candidate chunks from the document
// store, scored by semantic similarity against the query.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// WebSearcher fetches up to limit candidate results from the web-search
// provider. Results carry a registrable domain and an optional publication
// timestamp.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// ModelCatalog resolves a model identifier to its maximum context window in
// tokens. Unknown models resolve to a configured fallback window.
type ModelCatalog interface {
	ContextWindow(model string) int
}

// TokenEstimator estimates the token cost of a text for budget accounting.
// Estimates do not need to be exact; they need to be stable and conservative.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// IdentityProvider supplies the stable subject identifier used for
// deterministic experiment bucketing. Implementations fall back to an
// anonymous identifier when no identity is available.
type IdentityProvider interface {
	SubjectID(ctx context.Context) string
}

// CrossEncoderCandidate is a passage submitted for cross-encoder scoring.
type CrossEncoderCandidate struct {
	ID      string
	Content string
	Score   float64
}

// CrossEncoderResult carries the model relevance score for a candidate.
type CrossEncoderResult struct {
	ID    string
	Score float64
}

// CrossEncoder scores candidates against a query with an external model.
// On error, callers fall back to the composite reranking scores.
type CrossEncoder interface {
	Score(ctx context.Context, query string, candidates []CrossEncoderCandidate) ([]CrossEncoderResult, error)
	ModelName() string
}

// AuthorityProvider supplies per-domain authority scores. Implementations
// merge operator overrides (refreshed in the background) over built-in
// defaults and must be safe for concurrent reads.
type AuthorityProvider interface {
	DomainScore(domain string) (float64, bool)
}

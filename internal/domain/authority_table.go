package domain

import "sync/atomic"

// AuthorityTable is an in-memory AuthorityProvider. Lookups read an immutable
// snapshot; Replace swaps the whole snapshot atomically so a background
// refresh never races a request.
type AuthorityTable struct {
	scores atomic.Pointer[map[string]float64]
}

// DefaultAuthorityScores are the built-in seed scores applied before the
// first refresh from storage.
func DefaultAuthorityScores() map[string]float64 {
	return map[string]float64{
		"wikipedia.org":     0.9,
		"github.com":        0.85,
		"stackoverflow.com": 0.8,
		"arxiv.org":         0.85,
		"go.dev":            0.9,
		"pkg.go.dev":        0.9,
		"medium.com":        0.45,
		"quora.com":         0.35,
	}
}

// NewAuthorityTable builds a table from the given scores. A nil map seeds the
// built-in defaults.
func NewAuthorityTable(scores map[string]float64) *AuthorityTable {
	if scores == nil {
		scores = DefaultAuthorityScores()
	}
	t := &AuthorityTable{}
	t.scores.Store(&scores)
	return t
}

// DomainScore implements AuthorityProvider.
func (t *AuthorityTable) DomainScore(domain string) (float64, bool) {
	score, ok := (*t.scores.Load())[domain]
	return score, ok
}

// Replace installs a new snapshot. The caller must not mutate the map after
// handing it over.
func (t *AuthorityTable) Replace(scores map[string]float64) {
	t.scores.Store(&scores)
}

// Len reports the number of scored domains in the current snapshot.
func (t *AuthorityTable) Len() int {
	return len(*t.scores.Load())
}

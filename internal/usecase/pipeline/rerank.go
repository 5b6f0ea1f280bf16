package pipeline

import (
	"fmt"
	"sort"

	"retrieval-planner/internal/domain"
)

// RerankStrategy selects how candidates are rescored.
type RerankStrategy string

const (
	// RerankComposite combines the local relevance signals into a weighted
	// composite; it is pure and needs no model.
	RerankComposite RerankStrategy = "composite"
	// RerankCrossEncoder delegates scoring to an external cross-encoder
	// model; requires a model identifier.
	RerankCrossEncoder RerankStrategy = "cross-encoder"
)

// RerankWeights are the composite signal weights. Shorter documents and
// earlier original positions are preferred through the inverted length and
// position terms.
type RerankWeights struct {
	Semantic float64
	Keyword  float64
	Length   float64
	Position float64
}

// RerankConfig controls the re-ranking stage.
type RerankConfig struct {
	Enabled    bool
	Strategy   RerankStrategy
	Model      string
	TopK       int
	MaxResults int
	// MinScore drops composites below the cutoff; zero disables the cutoff.
	MinScore float64
	Weights  RerankWeights
}

// DefaultRerankConfig returns the re-ranking defaults.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{
		Enabled:    true,
		Strategy:   RerankComposite,
		TopK:       20,
		MaxResults: 10,
		Weights: RerankWeights{
			Semantic: 0.5,
			Keyword:  0.3,
			Length:   0.1,
			Position: 0.1,
		},
	}
}

// Validate checks the re-ranking configuration. Re-ranking cannot return
// more results than it re-ranked, and the cross-encoder strategy needs a
// model to call.
func (c RerankConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Strategy {
	case RerankComposite, RerankCrossEncoder:
	default:
		return fmt.Errorf("unknown rerank strategy %q", c.Strategy)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("rerank topK must be positive, got %d", c.TopK)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("rerank maxResults must be positive, got %d", c.MaxResults)
	}
	if c.MaxResults > c.TopK {
		return fmt.Errorf("rerank maxResults (%d) exceeds topK (%d)", c.MaxResults, c.TopK)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("rerank minScore %f outside [0, 1]", c.MinScore)
	}
	for _, w := range []float64{c.Weights.Semantic, c.Weights.Keyword, c.Weights.Length, c.Weights.Position} {
		if w < 0 || w > 1 {
			return fmt.Errorf("rerank weights must be in [0, 1], got %+v", c.Weights)
		}
	}
	if c.Strategy == RerankCrossEncoder && c.Model == "" {
		return fmt.Errorf("cross-encoder reranking requires a model identifier")
	}
	return nil
}

// Rerank takes the topK candidates by current score, rescores them with the
// weighted composite, drops composites below minScore, and truncates to
// maxResults. Ties preserve original retrieval order so identical inputs
// always produce identical outputs.
func Rerank(candidates []domain.Candidate, cfg RerankConfig) []domain.Candidate {
	if !cfg.Enabled || len(candidates) == 0 {
		return candidates
	}

	pool := make([]domain.Candidate, len(candidates))
	copy(pool, candidates)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
	if len(pool) > cfg.TopK {
		pool = pool[:cfg.TopK]
	}

	maxLength := 0
	maxPosition := 0
	for _, cand := range pool {
		if cand.Length > maxLength {
			maxLength = cand.Length
		}
		if cand.Position > maxPosition {
			maxPosition = cand.Position
		}
	}

	for i := range pool {
		normLength := 0.0
		if maxLength > 0 {
			normLength = float64(pool[i].Length) / float64(maxLength)
		}
		normPosition := 0.0
		if maxPosition > 0 {
			normPosition = float64(pool[i].Position) / float64(maxPosition)
		}

		pool[i].Score = pool[i].Semantic*cfg.Weights.Semantic +
			pool[i].Keyword*cfg.Weights.Keyword +
			(1-normLength)*cfg.Weights.Length +
			(1-normPosition)*cfg.Weights.Position
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].Position < pool[j].Position
	})

	out := make([]domain.Candidate, 0, len(pool))
	for _, cand := range pool {
		if cfg.MinScore > 0 && cand.Score < cfg.MinScore {
			continue
		}
		out = append(out, cand)
		if len(out) == cfg.MaxResults {
			break
		}
	}
	return out
}

package pipeline

import (
	"fmt"
	"sort"

	"retrieval-planner/internal/domain"
)

// OrderingStrategy selects the final sort key.
type OrderingStrategy string

const (
	OrderByRelevance     OrderingStrategy = "relevance"
	OrderByQuality       OrderingStrategy = "quality"
	OrderByHybrid        OrderingStrategy = "hybrid"
	OrderByChronological OrderingStrategy = "chronological"
)

// CollectionOrdering configures the final sort for one collection
// (document chunks or web results).
type CollectionOrdering struct {
	Strategy OrderingStrategy

	// Hybrid weights; the presets keep only the weights the strategy uses
	// non-zero. AuthorityWeight only contributes for web results.
	ScoreWeight     float64
	QualityWeight   float64
	AuthorityWeight float64

	Ascending bool
}

// OrderingConfig holds per-collection ordering.
type OrderingConfig struct {
	Document CollectionOrdering
	Web      CollectionOrdering
}

// DefaultOrderingConfig orders both collections by relevance.
func DefaultOrderingConfig() OrderingConfig {
	return OrderingConfig{
		Document: CollectionOrdering{Strategy: OrderByRelevance, ScoreWeight: 1.0},
		Web:      CollectionOrdering{Strategy: OrderByRelevance, ScoreWeight: 1.0},
	}
}

// Validate checks one collection's ordering settings.
func (c CollectionOrdering) Validate() error {
	switch c.Strategy {
	case OrderByRelevance, OrderByQuality, OrderByHybrid, OrderByChronological, "score":
	default:
		return fmt.Errorf("unknown ordering strategy %q", c.Strategy)
	}
	for _, w := range []float64{c.ScoreWeight, c.QualityWeight, c.AuthorityWeight} {
		if w < 0 || w > 1 {
			return fmt.Errorf("ordering weights must be in [0, 1], got %+v", c)
		}
	}
	return nil
}

// Validate checks both collections.
func (c OrderingConfig) Validate() error {
	if err := c.Document.Validate(); err != nil {
		return fmt.Errorf("document ordering: %w", err)
	}
	if err := c.Web.Validate(); err != nil {
		return fmt.Errorf("web ordering: %w", err)
	}
	return nil
}

// Order sorts candidates with the configured strategy. The sort is total:
// key ties fall back to score, then to original index, so re-sorting a
// sorted list is a no-op and repeated runs agree exactly.
func Order(candidates []domain.Candidate, cfg CollectionOrdering) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)

	key := func(c domain.Candidate) float64 {
		switch cfg.Strategy {
		case OrderByQuality:
			return c.Quality
		case OrderByHybrid:
			k := cfg.ScoreWeight*c.Score + cfg.QualityWeight*c.Quality
			if c.Source == domain.SourceWeb {
				k += cfg.AuthorityWeight * c.Authority
			}
			return k
		case OrderByChronological:
			return float64(c.PublishedAt.UnixNano())
		default: // relevance / score
			return c.Score
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			if cfg.Ascending {
				return ki < kj
			}
			return ki > kj
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Position < out[j].Position
	})
	return out
}

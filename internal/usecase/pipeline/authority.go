package pipeline

import (
	"fmt"

	"retrieval-planner/internal/domain"
)

// AuthorityConfig controls domain-authority score adjustment for web results.
type AuthorityConfig struct {
	Enabled bool

	// MinAuthorityScore is the cutoff separating boosted from penalized
	// domains among those with a known score.
	MinAuthorityScore   float64
	HighAuthorityBoost  float64
	LowAuthorityPenalty float64

	// FilterByAuthority drops results whose domain score (including the
	// neutral default for unknown domains) falls below MinAuthorityFilter.
	FilterByAuthority  bool
	MinAuthorityFilter float64
}

// DefaultAuthorityConfig returns the scorer defaults.
func DefaultAuthorityConfig() AuthorityConfig {
	return AuthorityConfig{
		Enabled:             true,
		MinAuthorityScore:   0.6,
		HighAuthorityBoost:  1.2,
		LowAuthorityPenalty: 0.8,
		FilterByAuthority:   false,
		MinAuthorityFilter:  0.3,
	}
}

// Validate checks the scorer configuration.
func (c AuthorityConfig) Validate() error {
	if c.MinAuthorityScore < 0 || c.MinAuthorityScore > 1 {
		return fmt.Errorf("minAuthorityScore %f outside [0, 1]", c.MinAuthorityScore)
	}
	if c.HighAuthorityBoost < 1.0 {
		return fmt.Errorf("highAuthorityBoost must be >= 1.0 (got %f), boosting should not penalize", c.HighAuthorityBoost)
	}
	if c.LowAuthorityPenalty <= 0 || c.LowAuthorityPenalty > 1.0 {
		return fmt.Errorf("lowAuthorityPenalty must be in (0, 1], got %f", c.LowAuthorityPenalty)
	}
	if c.FilterByAuthority && (c.MinAuthorityFilter < 0 || c.MinAuthorityFilter > 1) {
		return fmt.Errorf("minAuthorityFilter %f outside [0, 1]", c.MinAuthorityFilter)
	}
	return nil
}

// neutralAuthority is assumed for domains absent from the score table.
const neutralAuthority = 0.5

// ApplyAuthority adjusts web result scores by their domain's authority.
// Domains at or above the cutoff are boosted, known low-authority domains
// are penalized, and unknown domains pass through unadjusted unless
// authority filtering is on. Document chunks are never touched.
func ApplyAuthority(candidates []domain.Candidate, provider domain.AuthorityProvider, cfg AuthorityConfig) []domain.Candidate {
	if !cfg.Enabled {
		return candidates
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Source != domain.SourceWeb {
			out = append(out, cand)
			continue
		}

		score, known := neutralAuthority, false
		if provider != nil {
			if s, ok := provider.DomainScore(cand.Domain); ok {
				score, known = s, true
			}
		}

		if cfg.FilterByAuthority && score < cfg.MinAuthorityFilter {
			continue
		}

		if known {
			if score >= cfg.MinAuthorityScore {
				cand.Score *= cfg.HighAuthorityBoost
			} else {
				cand.Score *= cfg.LowAuthorityPenalty
			}
		}
		cand.Authority = score
		out = append(out, cand)
	}
	return out
}

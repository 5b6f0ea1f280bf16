package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"retrieval-planner/internal/domain"
)

// FilterMode selects which per-dimension threshold applies. It is a property
// of the strategy, never chosen per result.
type FilterMode int

const (
	ModeStrict FilterMode = iota
	ModeModerate
	ModeLenient
	modeCount
)

func (m FilterMode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeModerate:
		return "moderate"
	case ModeLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParseFilterMode maps a config string onto a mode.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "strict":
		return ModeStrict, nil
	case "moderate":
		return ModeModerate, nil
	case "lenient":
		return ModeLenient, nil
	default:
		return ModeModerate, fmt.Errorf("unknown filter mode %q", s)
	}
}

// DimensionConfig configures one filter dimension. Thresholds are indexed by
// mode so adding a mode without a threshold fails to compile.
type DimensionConfig struct {
	Enabled       bool
	UseHardFilter bool
	Thresholds    [modeCount]float64
	RankingPenalty float64
}

// Validate checks thresholds and penalty.
func (d DimensionConfig) Validate() error {
	for m, t := range d.Thresholds {
		if t < 0 || t > 1 {
			return fmt.Errorf("%s threshold %f outside [0, 1]", FilterMode(m), t)
		}
	}
	if d.RankingPenalty < 0 || d.RankingPenalty > 1 {
		return fmt.Errorf("ranking penalty %f outside [0, 1]", d.RankingPenalty)
	}
	return nil
}

// DiversityConfig caps per-source dominance of the result set.
type DiversityConfig struct {
	Enabled             bool
	MinDomainDiversity  float64
	MaxResultsPerDomain int
}

// Validate checks the diversity settings.
func (d DiversityConfig) Validate() error {
	if !d.Enabled {
		return nil
	}
	if d.MinDomainDiversity < 0 || d.MinDomainDiversity > 1 {
		return fmt.Errorf("minDomainDiversity %f outside [0, 1]", d.MinDomainDiversity)
	}
	if d.MaxResultsPerDomain <= 0 {
		return fmt.Errorf("maxResultsPerDomain must be positive, got %d", d.MaxResultsPerDomain)
	}
	return nil
}

// FilterStrategy owns the four dimension configs, the active mode, and the
// diversity constraint.
type FilterStrategy struct {
	Mode      FilterMode
	Freshness DimensionConfig
	Topic     DimensionConfig
	Quality   DimensionConfig
	Authority DimensionConfig
	Diversity DiversityConfig
}

// Validate checks every dimension and the diversity block.
func (s FilterStrategy) Validate() error {
	dims := []struct {
		name string
		cfg  DimensionConfig
	}{
		{"freshness", s.Freshness},
		{"topic", s.Topic},
		{"quality", s.Quality},
		{"authority", s.Authority},
	}
	for _, d := range dims {
		if err := d.cfg.Validate(); err != nil {
			return fmt.Errorf("%s filtering: %w", d.name, err)
		}
	}
	if err := s.Diversity.Validate(); err != nil {
		return fmt.Errorf("diversity: %w", err)
	}
	return nil
}

// PresetStrategy returns the built-in strategy for a mode. The presets share
// dimension wiring and differ in thresholds and hard/soft behavior: strict
// hard-filters, moderate hard-filters quality only, lenient only penalizes.
func PresetStrategy(mode FilterMode) FilterStrategy {
	quality := DimensionConfig{
		Enabled:        true,
		UseHardFilter:  mode != ModeLenient,
		Thresholds:     [modeCount]float64{ModeStrict: 0.7, ModeModerate: 0.5, ModeLenient: 0.3},
		RankingPenalty: 0.1,
	}
	topic := DimensionConfig{
		Enabled:        true,
		UseHardFilter:  mode == ModeStrict,
		Thresholds:     [modeCount]float64{ModeStrict: 0.6, ModeModerate: 0.4, ModeLenient: 0.2},
		RankingPenalty: 0.15,
	}
	freshness := DimensionConfig{
		Enabled:        true,
		UseHardFilter:  false,
		Thresholds:     [modeCount]float64{ModeStrict: 0.5, ModeModerate: 0.3, ModeLenient: 0.1},
		RankingPenalty: 0.1,
	}
	authority := DimensionConfig{
		Enabled:        true,
		UseHardFilter:  mode == ModeStrict,
		Thresholds:     [modeCount]float64{ModeStrict: 0.5, ModeModerate: 0.3, ModeLenient: 0.1},
		RankingPenalty: 0.2,
	}
	return FilterStrategy{
		Mode:      mode,
		Freshness: freshness,
		Topic:     topic,
		Quality:   quality,
		Authority: authority,
		Diversity: DiversityConfig{
			Enabled:             true,
			MinDomainDiversity:  0.3,
			MaxResultsPerDomain: 3,
		},
	}
}

// FilterDiagnostics summarizes what filtering did, for observability only.
type FilterDiagnostics struct {
	Input            int
	HardFiltered     int
	Penalized        int
	DiversityDropped int
	DistinctSources  int
	DiversityRatio   float64
	DiversityMet     bool
}

// ApplyFilters runs the four dimension filters and the diversity cap over a
// candidate batch. Hard-filtered candidates are dropped; soft failures keep
// the candidate with its score multiplied by (1 - penalty). Malformed
// dimension scores are treated as neutral so a single bad result never
// aborts the batch. Zero survivors yield domain.ErrEmptyResultSet.
func ApplyFilters(candidates []domain.Candidate, strategy FilterStrategy, logger *slog.Logger) ([]domain.Candidate, FilterDiagnostics, error) {
	diag := FilterDiagnostics{Input: len(candidates), DiversityMet: true}

	kept := make([]domain.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		dropped := false
		penalized := false

		dims := []struct {
			cfg   DimensionConfig
			score float64
		}{
			{strategy.Freshness, cand.Freshness},
			{strategy.Topic, cand.Topical},
			{strategy.Quality, cand.Quality},
			{strategy.Authority, cand.Authority},
		}
		for _, d := range dims {
			if !d.cfg.Enabled {
				continue
			}
			if math.IsNaN(d.score) || d.score < 0 || d.score > 1 {
				// Malformed signal: skip this dimension's contribution.
				continue
			}
			threshold := d.cfg.Thresholds[strategy.Mode]
			if d.score >= threshold {
				continue
			}
			if d.cfg.UseHardFilter {
				dropped = true
				break
			}
			cand.Score *= 1 - d.cfg.RankingPenalty
			penalized = true
		}

		if dropped {
			diag.HardFiltered++
			continue
		}
		if penalized {
			diag.Penalized++
		}
		kept = append(kept, cand)
	}

	if strategy.Diversity.Enabled {
		kept, diag.DiversityDropped = capPerSource(kept, strategy.Diversity.MaxResultsPerDomain)

		sources := make(map[string]struct{})
		for _, cand := range kept {
			sources[cand.SourceKey()] = struct{}{}
		}
		diag.DistinctSources = len(sources)
		if len(kept) > 0 {
			diag.DiversityRatio = float64(len(sources)) / float64(len(kept))
			diag.DiversityMet = diag.DiversityRatio >= strategy.Diversity.MinDomainDiversity
		}
		if !diag.DiversityMet && logger != nil {
			logger.Warn("diversity_below_minimum",
				slog.Float64("ratio", diag.DiversityRatio),
				slog.Float64("minimum", strategy.Diversity.MinDomainDiversity),
				slog.Int("distinct_sources", diag.DistinctSources))
		}
	}

	if len(kept) == 0 {
		return nil, diag, fmt.Errorf("%w: %d candidates in, %d hard-filtered",
			domain.ErrEmptyResultSet, diag.Input, diag.HardFiltered)
	}
	return kept, diag, nil
}

// capPerSource keeps at most max candidates per source key, preferring the
// highest-scoring and preserving relative order among survivors.
func capPerSource(candidates []domain.Candidate, max int) ([]domain.Candidate, int) {
	if max <= 0 {
		return candidates, 0
	}

	// Rank candidates per source by score to find which survive the cap.
	bySource := make(map[string][]int)
	for i, cand := range candidates {
		key := cand.SourceKey()
		bySource[key] = append(bySource[key], i)
	}

	drop := make(map[int]bool)
	for _, indices := range bySource {
		if len(indices) <= max {
			continue
		}
		ranked := make([]int, len(indices))
		copy(ranked, indices)
		sort.SliceStable(ranked, func(a, b int) bool {
			return candidates[ranked[a]].Score > candidates[ranked[b]].Score
		})
		for _, idx := range ranked[max:] {
			drop[idx] = true
		}
	}

	if len(drop) == 0 {
		return candidates, 0
	}
	kept := make([]domain.Candidate, 0, len(candidates)-len(drop))
	for i, cand := range candidates {
		if !drop[i] {
			kept = append(kept, cand)
		}
	}
	return kept, len(drop)
}

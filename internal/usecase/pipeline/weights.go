package pipeline

import "fmt"

// HybridWeights is the semantic/keyword weight pair applied when combining
// relevance signals. The resolver always emits a normalized pair
// (Semantic + Keyword = 1).
type HybridWeights struct {
	Semantic float64
	Keyword  float64
}

// DefaultHybridWeights is the preset used when no experiment applies and the
// fallback for degenerate zero-sum payloads.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Semantic: 0.6, Keyword: 0.4}
}

// WeightVariant is an experiment arm carrying a weight payload.
type WeightVariant struct {
	Name              string
	Weights           HybridWeights
	TrafficPercentage int
}

// WeightsConfig holds the resolver settings.
type WeightsConfig struct {
	Default HybridWeights

	// Experiment settings. Variant selection is stable per subject id.
	ABTestEnabled  bool
	Variants       []WeightVariant
	DefaultVariant string
}

// DefaultWeightsConfig returns the resolver defaults with experimentation off.
func DefaultWeightsConfig() WeightsConfig {
	return WeightsConfig{
		Default:        DefaultHybridWeights(),
		DefaultVariant: "control",
	}
}

// Validate checks the resolver configuration.
func (c WeightsConfig) Validate() error {
	if err := validateWeightPair(c.Default); err != nil {
		return fmt.Errorf("default weights: %w", err)
	}
	total := 0
	for _, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf("weight variant with empty name")
		}
		if v.TrafficPercentage < 0 || v.TrafficPercentage > 100 {
			return fmt.Errorf("variant %q traffic percentage %d outside [0, 100]", v.Name, v.TrafficPercentage)
		}
		if err := validateWeightPair(v.Weights); err != nil {
			return fmt.Errorf("variant %q: %w", v.Name, err)
		}
		total += v.TrafficPercentage
	}
	if total > 100 {
		return fmt.Errorf("variant traffic percentages sum to %d (max 100)", total)
	}
	return nil
}

func validateWeightPair(w HybridWeights) error {
	if w.Semantic < 0 || w.Semantic > 1 || w.Keyword < 0 || w.Keyword > 1 {
		return fmt.Errorf("weights must be in [0, 1], got semantic=%f keyword=%f", w.Semantic, w.Keyword)
	}
	return nil
}

// ResolveWeights returns the normalized weight pair for a subject, plus the
// variant name chosen for diagnostics. With experimentation disabled the
// configured default applies under the default variant name.
func ResolveWeights(subjectID string, cfg WeightsConfig) (HybridWeights, string) {
	weights := cfg.Default
	variantName := cfg.DefaultVariant

	if cfg.ABTestEnabled {
		variants := make([]Variant, len(cfg.Variants))
		for i, v := range cfg.Variants {
			variants[i] = Variant{Name: v.Name, TrafficPercentage: v.TrafficPercentage}
		}
		selected := SelectVariant(subjectID, variants, cfg.DefaultVariant, true)
		variantName = selected
		for _, v := range cfg.Variants {
			if v.Name == selected {
				weights = v.Weights
				break
			}
		}
	}

	return normalizeWeights(weights), variantName
}

// normalizeWeights scales a pair so it sums to 1, substituting the default
// preset for the degenerate zero-sum case.
func normalizeWeights(w HybridWeights) HybridWeights {
	sum := w.Semantic + w.Keyword
	if sum == 0 {
		d := DefaultHybridWeights()
		sum = d.Semantic + d.Keyword
		return HybridWeights{Semantic: d.Semantic / sum, Keyword: d.Keyword / sum}
	}
	return HybridWeights{Semantic: w.Semantic / sum, Keyword: w.Keyword / sum}
}

package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// ComplexityMultipliers maps each tier to its result-count multiplier.
type ComplexityMultipliers struct {
	Simple   float64
	Moderate float64
	Complex  float64
}

// factor returns the multiplier for a tier.
func (m ComplexityMultipliers) factor(c Complexity) float64 {
	switch c {
	case ComplexitySimple:
		return m.Simple
	case ComplexityComplex:
		return m.Complex
	default:
		return m.Moderate
	}
}

// LimitsConfig holds tunable parameters for dynamic result-count sizing.
type LimitsConfig struct {
	// Enabled gates dynamic limiting; when false the static defaults are
	// returned unchanged.
	Enabled bool
	// UseTokenBudget enables budget-based sizing when a budget is available.
	UseTokenBudget bool
	// UseComplexity enables the complexity multiplier.
	UseComplexity bool

	// DefaultDocumentChunks and DefaultWebResults are the static counts used
	// when dynamic limiting is off or no budget is available.
	DefaultDocumentChunks int
	DefaultWebResults     int

	// Clamp windows. Explicit per-request overrides win over these.
	MinDocumentChunks int
	MaxDocumentChunks int
	MinWebResults     int
	MaxWebResults     int

	// TokensPerDocumentChunk and TokensPerWebResult are average item costs
	// used to convert the remaining budget into an item count.
	TokensPerDocumentChunk int
	TokensPerWebResult     int
	// DocWebRatio is the share of items allocated to document chunks.
	DocWebRatio float64

	Multipliers ComplexityMultipliers
}

// DefaultLimitsConfig returns the sizing defaults.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		Enabled:               true,
		UseTokenBudget:        true,
		UseComplexity:         true,
		DefaultDocumentChunks: 5,
		DefaultWebResults:     3,
		MinDocumentChunks:     2,
		MaxDocumentChunks:     12,
		MinWebResults:         1,
		MaxWebResults:         8,
		TokensPerDocumentChunk: 600,
		TokensPerWebResult:     300,
		DocWebRatio:            0.7,
		Multipliers: ComplexityMultipliers{
			Simple:   0.7,
			Moderate: 1.0,
			Complex:  1.3,
		},
	}
}

// Validate checks the sizing configuration.
func (c LimitsConfig) Validate() error {
	if c.MinDocumentChunks < 0 || c.MaxDocumentChunks < c.MinDocumentChunks {
		return fmt.Errorf("document chunk window invalid: [%d, %d]", c.MinDocumentChunks, c.MaxDocumentChunks)
	}
	if c.MinWebResults < 0 || c.MaxWebResults < c.MinWebResults {
		return fmt.Errorf("web result window invalid: [%d, %d]", c.MinWebResults, c.MaxWebResults)
	}
	if c.TokensPerDocumentChunk <= 0 || c.TokensPerWebResult <= 0 {
		return fmt.Errorf("per-item token costs must be positive, got doc=%d web=%d",
			c.TokensPerDocumentChunk, c.TokensPerWebResult)
	}
	if c.DocWebRatio < 0 || c.DocWebRatio > 1 {
		return fmt.Errorf("docWebRatio must be in [0, 1], got %f", c.DocWebRatio)
	}
	if c.Multipliers.Simple <= 0 || c.Multipliers.Moderate <= 0 || c.Multipliers.Complex <= 0 {
		return fmt.Errorf("complexity multipliers must be positive, got %+v", c.Multipliers)
	}
	return nil
}

// LimitFactors records which inputs shaped the computed limits, for the
// audit trail only.
type LimitFactors struct {
	TokenBudget          int
	Complexity           string
	ComplexityMultiplier float64
	BaseDocumentChunks   int
	BaseWebResults       int
}

// DynamicLimits is the final candidate-count decision handed to the
// retrieval collaborators. Invariant: both counts sit inside their
// configured clamp windows. Reasoning is a human-readable audit trail and
// is never parsed by callers.
type DynamicLimits struct {
	DocumentChunks int
	WebResults     int
	Reasoning      string
	Factors        LimitFactors
}

// ComputeLimits combines the token budget and query complexity into final
// document/web candidate counts. A nil budget falls back to the configured
// default counts; a zero remaining budget yields the configured minimums.
func ComputeLimits(query string, budget *TokenBudget, cfg LimitsConfig, ccfg ComplexityConfig) DynamicLimits {
	if !cfg.Enabled {
		return DynamicLimits{
			DocumentChunks: cfg.DefaultDocumentChunks,
			WebResults:     cfg.DefaultWebResults,
			Reasoning:      "dynamic limiting disabled; using static defaults",
			Factors: LimitFactors{
				BaseDocumentChunks: cfg.DefaultDocumentChunks,
				BaseWebResults:     cfg.DefaultWebResults,
			},
		}
	}

	var reasons []string
	factors := LimitFactors{ComplexityMultiplier: 1.0}

	docCount := cfg.DefaultDocumentChunks
	webCount := cfg.DefaultWebResults

	if cfg.UseTokenBudget && budget != nil {
		avgTokensPerItem := float64(cfg.TokensPerDocumentChunk)*cfg.DocWebRatio +
			float64(cfg.TokensPerWebResult)*(1-cfg.DocWebRatio)
		maxItems := int(math.Floor(float64(budget.Remaining) / avgTokensPerItem))

		docCount = int(math.Floor(float64(maxItems) * cfg.DocWebRatio))
		webCount = maxItems - docCount

		factors.TokenBudget = budget.Remaining
		reasons = append(reasons, fmt.Sprintf(
			"budget sizing: %d tokens remaining / %.0f per item -> %d items (%d doc, %d web)",
			budget.Remaining, avgTokensPerItem, maxItems, docCount, webCount))
	} else {
		reasons = append(reasons, fmt.Sprintf(
			"no budget available; using default counts (%d doc, %d web)", docCount, webCount))
	}
	factors.BaseDocumentChunks = docCount
	factors.BaseWebResults = webCount

	if cfg.UseComplexity {
		tier := ClassifyComplexity(query, ccfg)
		multiplier := cfg.Multipliers.factor(tier)
		docCount = int(math.Floor(float64(docCount) * multiplier))
		webCount = int(math.Floor(float64(webCount) * multiplier))

		factors.Complexity = tier.String()
		factors.ComplexityMultiplier = multiplier
		reasons = append(reasons, fmt.Sprintf(
			"complexity %s -> x%.1f (%d doc, %d web)", tier, multiplier, docCount, webCount))
	}

	docCount = clamp(docCount, cfg.MinDocumentChunks, cfg.MaxDocumentChunks)
	webCount = clamp(webCount, cfg.MinWebResults, cfg.MaxWebResults)
	reasons = append(reasons, fmt.Sprintf(
		"clamped to windows doc [%d,%d] web [%d,%d] -> %d doc, %d web",
		cfg.MinDocumentChunks, cfg.MaxDocumentChunks, cfg.MinWebResults, cfg.MaxWebResults,
		docCount, webCount))

	return DynamicLimits{
		DocumentChunks: docCount,
		WebResults:     webCount,
		Reasoning:      strings.Join(reasons, "; "),
		Factors:        factors,
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

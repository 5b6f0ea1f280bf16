package pipeline

import "strings"

// Complexity is the coarse difficulty tier of a query, derived purely from
// the query text. It is computed once per request and never mutated.
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityModerate
	ComplexityComplex
)

func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityModerate:
		return "moderate"
	case ComplexityComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// ComplexityConfig holds the classifier thresholds.
type ComplexityConfig struct {
	// SimpleMaxWords is the word count at or below which a cue-free query is simple.
	SimpleMaxWords int
	// ComplexMinWords is the word count at or above which a query is complex.
	ComplexMinWords int
	// ComplexMinCues is the number of structural cues that force the complex tier.
	ComplexMinCues int
}

// DefaultComplexityConfig returns the classifier defaults.
func DefaultComplexityConfig() ComplexityConfig {
	return ComplexityConfig{
		SimpleMaxWords:  7,
		ComplexMinWords: 20,
		ComplexMinCues:  2,
	}
}

// complexityCues are structural markers of multi-part or analytical queries.
var complexityCues = []string{
	"why", "how", "compare", "difference", "versus", " vs ",
	"explain", "analyze", "relationship", "trade-off", "tradeoff",
	"pros and cons", "step by step",
}

// ClassifyComplexity scores a raw query into a tier using its length and
// structural cues. Pure and side-effect free.
func ClassifyComplexity(query string, cfg ComplexityConfig) Complexity {
	lowered := strings.ToLower(strings.TrimSpace(query))
	words := len(strings.Fields(lowered))

	cues := 0
	for _, cue := range complexityCues {
		if strings.Contains(lowered, cue) {
			cues++
		}
	}
	// A multi-question query is structurally complex regardless of wording.
	if strings.Count(lowered, "?") > 1 {
		cues++
	}
	if strings.Count(lowered, ",") >= 2 {
		cues++
	}

	switch {
	case words >= cfg.ComplexMinWords || cues >= cfg.ComplexMinCues:
		return ComplexityComplex
	case words <= cfg.SimpleMaxWords && cues == 0:
		return ComplexitySimple
	default:
		return ComplexityModerate
	}
}

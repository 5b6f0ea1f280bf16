package domain

import "strings"

// StaticModelCatalog resolves context windows from a fixed table with a
// fallback for unknown models. The table is read-only after construction;
// reconfiguration replaces the whole catalog.
type StaticModelCatalog struct {
	windows  map[string]int
	fallback int
}

// NewStaticModelCatalog builds a catalog. A nil table uses built-in defaults.
func NewStaticModelCatalog(windows map[string]int, fallback int) *StaticModelCatalog {
	if windows == nil {
		windows = map[string]int{
			"gpt-4o":          128000,
			"gpt-4o-mini":     128000,
			"llama3.1:8b":     131072,
			"gemma3:4b":       8192,
			"embeddinggemma":  2048,
			"gemma3-12b-rag":  8192,
			"swallow-8b-rag":  8192,
		}
	}
	if fallback <= 0 {
		fallback = 8192
	}
	return &StaticModelCatalog{windows: windows, fallback: fallback}
}

// ContextWindow implements ModelCatalog.
func (c *StaticModelCatalog) ContextWindow(model string) int {
	if w, ok := c.windows[model]; ok {
		return w
	}
	return c.fallback
}

// HeuristicEstimator approximates token counts without a tokenizer.
// Roughly four characters per token for prose, floored at the word count so
// short whitespace-heavy text is not underestimated.
type HeuristicEstimator struct{}

// NewHeuristicEstimator creates the default TokenEstimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// EstimateTokens implements TokenEstimator.
func (e *HeuristicEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byChars := (len(text) + 3) / 4
	byWords := len(strings.Fields(text))
	if byWords > byChars {
		return byWords
	}
	return byChars
}

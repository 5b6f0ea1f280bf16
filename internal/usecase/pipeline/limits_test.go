package pipeline_test

import (
	"fmt"
	"testing"

	"retrieval-planner/internal/usecase/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestComputeLimits_BudgetSizing(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	// avg item cost = 600*0.7 + 300*0.3 = 510 tokens; 5468 remaining -> 10
	// items, split 7 doc / 3 web, moderate multiplier leaves them unchanged.
	budget := pipeline.TokenBudget{Remaining: 5468}
	limits := pipeline.ComputeLimits("how does the billing export work", &budget, cfg, ccfg)

	assert.Equal(t, 7, limits.DocumentChunks)
	assert.Equal(t, 3, limits.WebResults)
	assert.Equal(t, 5468, limits.Factors.TokenBudget)
	assert.Equal(t, "moderate", limits.Factors.Complexity)
	assert.NotEmpty(t, limits.Reasoning)
}

func TestComputeLimits_SimpleQueryShrinks(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	budget := pipeline.TokenBudget{Remaining: 5468}
	limits := pipeline.ComputeLimits("capital of France", &budget, cfg, ccfg)

	// 7 doc / 3 web scaled by 0.7 and floored.
	assert.Equal(t, 4, limits.DocumentChunks)
	assert.Equal(t, 2, limits.WebResults)
	assert.Equal(t, 0.7, limits.Factors.ComplexityMultiplier)
}

func TestComputeLimits_ComplexQueryGrows(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	budget := pipeline.TokenBudget{Remaining: 5468}
	limits := pipeline.ComputeLimits("explain the difference between TCP and UDP", &budget, cfg, ccfg)

	assert.Equal(t, 9, limits.DocumentChunks)
	assert.Equal(t, 3, limits.WebResults)
	assert.Equal(t, 1.3, limits.Factors.ComplexityMultiplier)
}

func TestComputeLimits_ZeroBudgetClampsToMinimums(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	budget := pipeline.TokenBudget{Remaining: 0}
	limits := pipeline.ComputeLimits("capital of France", &budget, cfg, ccfg)

	assert.Equal(t, cfg.MinDocumentChunks, limits.DocumentChunks)
	assert.Equal(t, cfg.MinWebResults, limits.WebResults)
}

func TestComputeLimits_HugeBudgetClampsToMaximums(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	budget := pipeline.TokenBudget{Remaining: 1_000_000}
	limits := pipeline.ComputeLimits("explain the difference between TCP and UDP", &budget, cfg, ccfg)

	assert.Equal(t, cfg.MaxDocumentChunks, limits.DocumentChunks)
	assert.Equal(t, cfg.MaxWebResults, limits.WebResults)
}

func TestComputeLimits_NilBudgetUsesDefaults(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	limits := pipeline.ComputeLimits("how does the billing export work", nil, cfg, ccfg)

	assert.Equal(t, cfg.DefaultDocumentChunks, limits.DocumentChunks)
	assert.Equal(t, cfg.DefaultWebResults, limits.WebResults)
	assert.Equal(t, 0, limits.Factors.TokenBudget)
}

func TestComputeLimits_Disabled(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	cfg.Enabled = false

	budget := pipeline.TokenBudget{Remaining: 5468}
	limits := pipeline.ComputeLimits("explain the difference between TCP and UDP", &budget, cfg, pipeline.DefaultComplexityConfig())

	assert.Equal(t, cfg.DefaultDocumentChunks, limits.DocumentChunks)
	assert.Equal(t, cfg.DefaultWebResults, limits.WebResults)
}

func TestComputeLimits_AlwaysInsideClampWindows(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	ccfg := pipeline.DefaultComplexityConfig()

	queries := []string{
		"capital of France",
		"how does the billing export work",
		"explain the difference between TCP and UDP",
	}
	for _, remaining := range []int{0, 100, 510, 5468, 50000, 1_000_000} {
		budget := pipeline.TokenBudget{Remaining: remaining}
		for _, q := range queries {
			limits := pipeline.ComputeLimits(q, &budget, cfg, ccfg)
			label := fmt.Sprintf("remaining=%d query=%q", remaining, q)
			assert.GreaterOrEqual(t, limits.DocumentChunks, cfg.MinDocumentChunks, label)
			assert.LessOrEqual(t, limits.DocumentChunks, cfg.MaxDocumentChunks, label)
			assert.GreaterOrEqual(t, limits.WebResults, cfg.MinWebResults, label)
			assert.LessOrEqual(t, limits.WebResults, cfg.MaxWebResults, label)
		}
	}
}

func TestLimitsConfig_Validate(t *testing.T) {
	cfg := pipeline.DefaultLimitsConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxDocumentChunks = cfg.MinDocumentChunks - 1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.TokensPerDocumentChunk = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.DocWebRatio = 1.5
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Multipliers.Simple = 0
	assert.Error(t, bad.Validate())
}

package usecase

import (
	"fmt"

	"retrieval-planner/internal/usecase/pipeline"
)

// PipelineConfig aggregates every stage's tunables for one deployment.
// It is loaded and validated once at startup; reconfiguration swaps the
// whole object atomically so in-flight requests never observe a partial
// update.
type PipelineConfig struct {
	// ResponseReserve is the context-window slice held back for the model's
	// answer when computing the token budget.
	ResponseReserve int

	Complexity   pipeline.ComplexityConfig
	Limits       pipeline.LimitsConfig
	Weights      pipeline.WeightsConfig
	Filtering    pipeline.FilterStrategy
	Authority    pipeline.AuthorityConfig
	Rerank       pipeline.RerankConfig
	Ordering     pipeline.OrderingConfig
	ChunkProfile pipeline.ChunkProfileConfig
}

// DefaultPipelineConfig returns the full default stack with moderate
// filtering.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ResponseReserve: 1024,
		Complexity:      pipeline.DefaultComplexityConfig(),
		Limits:          pipeline.DefaultLimitsConfig(),
		Weights:         pipeline.DefaultWeightsConfig(),
		Filtering:       pipeline.PresetStrategy(pipeline.ModeModerate),
		Authority:       pipeline.DefaultAuthorityConfig(),
		Rerank:          pipeline.DefaultRerankConfig(),
		Ordering:        pipeline.DefaultOrderingConfig(),
		ChunkProfile:    pipeline.DefaultChunkProfileConfig(),
	}
}

// Validate rejects an invalid configuration before any request uses it.
func (c PipelineConfig) Validate() error {
	if c.ResponseReserve < 0 {
		return fmt.Errorf("response reserve must be non-negative, got %d", c.ResponseReserve)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits config invalid: %w", err)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights config invalid: %w", err)
	}
	if err := c.Filtering.Validate(); err != nil {
		return fmt.Errorf("filtering config invalid: %w", err)
	}
	if err := c.Authority.Validate(); err != nil {
		return fmt.Errorf("authority config invalid: %w", err)
	}
	if err := c.Rerank.Validate(); err != nil {
		return fmt.Errorf("rerank config invalid: %w", err)
	}
	if err := c.Ordering.Validate(); err != nil {
		return fmt.Errorf("ordering config invalid: %w", err)
	}
	if err := c.ChunkProfile.Validate(); err != nil {
		return fmt.Errorf("chunk profile config invalid: %w", err)
	}
	return nil
}

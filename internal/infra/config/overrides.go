package config

import (
	"fmt"
	"os"

	"retrieval-planner/internal/usecase"
	"retrieval-planner/internal/usecase/pipeline"

	"gopkg.in/yaml.v3"
)

// PipelineOverrides is the operator-editable tuning file. Every field is a
// pointer: only the keys present in the YAML override the defaults, the rest
// of the pipeline config stays untouched.
type PipelineOverrides struct {
	ResponseReserve *int `yaml:"response_reserve"`

	Limits struct {
		Enabled               *bool    `yaml:"enabled"`
		DefaultDocumentChunks *int     `yaml:"default_document_chunks"`
		DefaultWebResults     *int     `yaml:"default_web_results"`
		MinDocumentChunks     *int     `yaml:"min_document_chunks"`
		MaxDocumentChunks     *int     `yaml:"max_document_chunks"`
		MinWebResults         *int     `yaml:"min_web_results"`
		MaxWebResults         *int     `yaml:"max_web_results"`
		DocWebRatio           *float64 `yaml:"doc_web_ratio"`
	} `yaml:"limits"`

	Weights struct {
		Semantic       *float64 `yaml:"semantic"`
		Keyword        *float64 `yaml:"keyword"`
		ABTestEnabled  *bool    `yaml:"ab_test_enabled"`
		DefaultVariant *string  `yaml:"default_variant"`
		Variants       []struct {
			Name              string  `yaml:"name"`
			Semantic          float64 `yaml:"semantic"`
			Keyword           float64 `yaml:"keyword"`
			TrafficPercentage int     `yaml:"traffic_percentage"`
		} `yaml:"variants"`
	} `yaml:"weights"`

	FilterMode *string `yaml:"filter_mode"`

	Authority struct {
		Enabled           *bool    `yaml:"enabled"`
		FilterByAuthority *bool    `yaml:"filter_by_authority"`
		MinAuthorityScore *float64 `yaml:"min_authority_score"`
	} `yaml:"authority"`

	Rerank struct {
		Enabled    *bool    `yaml:"enabled"`
		Strategy   *string  `yaml:"strategy"`
		Model      *string  `yaml:"model"`
		TopK       *int     `yaml:"top_k"`
		MaxResults *int     `yaml:"max_results"`
		MinScore   *float64 `yaml:"min_score"`
	} `yaml:"rerank"`

	Ordering struct {
		Document *string `yaml:"document"`
		Web      *string `yaml:"web"`
	} `yaml:"ordering"`
}

// LoadOverrides reads and parses the overrides file.
func LoadOverrides(path string) (*PipelineOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	var overrides PipelineOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file: %w", err)
	}
	return &overrides, nil
}

// Apply merges the overrides onto a base config and returns the result. The
// caller is expected to validate the merged config before using it.
func (o *PipelineOverrides) Apply(base usecase.PipelineConfig) (usecase.PipelineConfig, error) {
	cfg := base

	if o.ResponseReserve != nil {
		cfg.ResponseReserve = *o.ResponseReserve
	}

	setInt(&cfg.Limits.DefaultDocumentChunks, o.Limits.DefaultDocumentChunks)
	setInt(&cfg.Limits.DefaultWebResults, o.Limits.DefaultWebResults)
	setInt(&cfg.Limits.MinDocumentChunks, o.Limits.MinDocumentChunks)
	setInt(&cfg.Limits.MaxDocumentChunks, o.Limits.MaxDocumentChunks)
	setInt(&cfg.Limits.MinWebResults, o.Limits.MinWebResults)
	setInt(&cfg.Limits.MaxWebResults, o.Limits.MaxWebResults)
	setBool(&cfg.Limits.Enabled, o.Limits.Enabled)
	setFloat(&cfg.Limits.DocWebRatio, o.Limits.DocWebRatio)

	setFloat(&cfg.Weights.Default.Semantic, o.Weights.Semantic)
	setFloat(&cfg.Weights.Default.Keyword, o.Weights.Keyword)
	setBool(&cfg.Weights.ABTestEnabled, o.Weights.ABTestEnabled)
	if o.Weights.DefaultVariant != nil {
		cfg.Weights.DefaultVariant = *o.Weights.DefaultVariant
	}
	if len(o.Weights.Variants) > 0 {
		variants := make([]pipeline.WeightVariant, 0, len(o.Weights.Variants))
		for _, v := range o.Weights.Variants {
			variants = append(variants, pipeline.WeightVariant{
				Name:              v.Name,
				Weights:           pipeline.HybridWeights{Semantic: v.Semantic, Keyword: v.Keyword},
				TrafficPercentage: v.TrafficPercentage,
			})
		}
		cfg.Weights.Variants = variants
	}

	if o.FilterMode != nil {
		mode, err := pipeline.ParseFilterMode(*o.FilterMode)
		if err != nil {
			return base, err
		}
		cfg.Filtering = pipeline.PresetStrategy(mode)
	}

	setBool(&cfg.Authority.Enabled, o.Authority.Enabled)
	setBool(&cfg.Authority.FilterByAuthority, o.Authority.FilterByAuthority)
	setFloat(&cfg.Authority.MinAuthorityScore, o.Authority.MinAuthorityScore)

	setBool(&cfg.Rerank.Enabled, o.Rerank.Enabled)
	if o.Rerank.Strategy != nil {
		cfg.Rerank.Strategy = pipeline.RerankStrategy(*o.Rerank.Strategy)
	}
	if o.Rerank.Model != nil {
		cfg.Rerank.Model = *o.Rerank.Model
	}
	setInt(&cfg.Rerank.TopK, o.Rerank.TopK)
	setInt(&cfg.Rerank.MaxResults, o.Rerank.MaxResults)
	setFloat(&cfg.Rerank.MinScore, o.Rerank.MinScore)

	if o.Ordering.Document != nil {
		cfg.Ordering.Document.Strategy = pipeline.OrderingStrategy(*o.Ordering.Document)
	}
	if o.Ordering.Web != nil {
		cfg.Ordering.Web.Strategy = pipeline.OrderingStrategy(*o.Ordering.Web)
	}

	return cfg, nil
}

// BuildPipelineConfig loads the overrides at path (when non-empty) and merges
// them onto the defaults.
func BuildPipelineConfig(path string) (usecase.PipelineConfig, error) {
	cfg := usecase.DefaultPipelineConfig()
	if path == "" {
		return cfg, nil
	}
	overrides, err := LoadOverrides(path)
	if err != nil {
		return cfg, err
	}
	merged, err := overrides.Apply(cfg)
	if err != nil {
		return cfg, err
	}
	if err := merged.Validate(); err != nil {
		return cfg, fmt.Errorf("merged pipeline config invalid: %w", err)
	}
	return merged, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

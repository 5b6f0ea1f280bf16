package config

import (
	"os"
	"path/filepath"
	"testing"

	"retrieval-planner/internal/usecase"
	"retrieval-planner/internal/usecase/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildPipelineConfig_NoPathUsesDefaults(t *testing.T) {
	cfg, err := BuildPipelineConfig("")
	require.NoError(t, err)
	assert.Equal(t, usecase.DefaultPipelineConfig(), cfg)
}

func TestBuildPipelineConfig_MergesOverrides(t *testing.T) {
	path := writeOverrides(t, `
response_reserve: 2048
limits:
  max_document_chunks: 15
  doc_web_ratio: 0.8
weights:
  semantic: 0.7
  keyword: 0.3
filter_mode: lenient
rerank:
  max_results: 5
ordering:
  web: chronological
`)

	cfg, err := BuildPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2048, cfg.ResponseReserve)
	assert.Equal(t, 15, cfg.Limits.MaxDocumentChunks)
	assert.Equal(t, 0.8, cfg.Limits.DocWebRatio)
	assert.Equal(t, 0.7, cfg.Weights.Default.Semantic)
	assert.Equal(t, pipeline.ModeLenient, cfg.Filtering.Mode)
	assert.Equal(t, 5, cfg.Rerank.MaxResults)
	assert.Equal(t, pipeline.OrderByChronological, cfg.Ordering.Web.Strategy)

	// Untouched keys keep their defaults.
	defaults := usecase.DefaultPipelineConfig()
	assert.Equal(t, defaults.Limits.MinDocumentChunks, cfg.Limits.MinDocumentChunks)
	assert.Equal(t, defaults.Rerank.TopK, cfg.Rerank.TopK)
}

func TestBuildPipelineConfig_ExperimentVariants(t *testing.T) {
	path := writeOverrides(t, `
weights:
  ab_test_enabled: true
  variants:
    - name: semantic-heavy
      semantic: 0.8
      keyword: 0.2
      traffic_percentage: 50
    - name: keyword-heavy
      semantic: 0.4
      keyword: 0.6
      traffic_percentage: 50
`)

	cfg, err := BuildPipelineConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Weights.ABTestEnabled)
	require.Len(t, cfg.Weights.Variants, 2)
	assert.Equal(t, "semantic-heavy", cfg.Weights.Variants[0].Name)
	assert.Equal(t, 0.8, cfg.Weights.Variants[0].Weights.Semantic)
}

func TestBuildPipelineConfig_InvalidMergeRejected(t *testing.T) {
	path := writeOverrides(t, `
rerank:
  top_k: 5
  max_results: 20
`)

	_, err := BuildPipelineConfig(path)
	assert.Error(t, err)
}

func TestBuildPipelineConfig_UnknownFilterModeRejected(t *testing.T) {
	path := writeOverrides(t, `filter_mode: aggressive`)

	_, err := BuildPipelineConfig(path)
	assert.Error(t, err)
}

func TestBuildPipelineConfig_MissingFile(t *testing.T) {
	_, err := BuildPipelineConfig("/nonexistent/overrides.yaml")
	assert.Error(t, err)
}

func TestBuildPipelineConfig_MalformedYAML(t *testing.T) {
	path := writeOverrides(t, "limits: [not a map")
	_, err := BuildPipelineConfig(path)
	assert.Error(t, err)
}

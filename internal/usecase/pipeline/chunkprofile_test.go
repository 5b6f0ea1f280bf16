package pipeline_test

import (
	"testing"

	"retrieval-planner/internal/usecase/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestResolveChunkProfile_RatioMode(t *testing.T) {
	cfg := pipeline.DefaultChunkProfileConfig()
	cfg.Mode = pipeline.OverlapRatio

	tests := []struct {
		docType  string
		max      int
		min      int
		overlap  int
		strategy string
	}{
		{"markdown", 1000, 200, 100, "heading"},
		{"html", 900, 150, 108, "block"},
		{"pdf", 1200, 250, 180, "page"},
		{"code", 600, 100, 48, "symbol"},
		{"plaintext", 800, 150, 80, "paragraph"},
	}
	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			p := pipeline.ResolveChunkProfile(tt.docType, cfg)
			assert.Equal(t, tt.max, p.MaxChunkSize)
			assert.Equal(t, tt.min, p.MinChunkSize)
			assert.Equal(t, tt.overlap, p.OverlapSize)
			assert.Equal(t, tt.strategy, p.Strategy)
		})
	}
}

func TestResolveChunkProfile_UnknownTypeFallsBack(t *testing.T) {
	cfg := pipeline.DefaultChunkProfileConfig()
	cfg.Mode = pipeline.OverlapRatio

	p := pipeline.ResolveChunkProfile("spreadsheet", cfg)
	assert.Equal(t, 800, p.MaxChunkSize)
	assert.Equal(t, "paragraph", p.Strategy)
}

func TestResolveChunkProfile_DynamicMode(t *testing.T) {
	cfg := pipeline.DefaultChunkProfileConfig()

	// Large pdf chunks get less overlap (0.12 - 0.02), mid-sized markdown
	// keeps the base ratio.
	pdf := pipeline.ResolveChunkProfile("pdf", cfg)
	assert.Equal(t, 120, pdf.OverlapSize) // 1200 * 0.10

	md := pipeline.ResolveChunkProfile("markdown", cfg)
	assert.Equal(t, 120, md.OverlapSize) // 1000 * 0.12
}

func TestResolveChunkProfile_DynamicFloorClamps(t *testing.T) {
	cfg := pipeline.ChunkProfileConfig{
		Enabled:          true,
		Mode:             pipeline.OverlapDynamic,
		DynamicBaseRatio: 0.09,
		DynamicFloor:     0.08,
		DynamicCeiling:   0.18,
	}

	// 0.09 - 0.02 would undershoot the floor; clamps at 0.08.
	p := pipeline.ResolveChunkProfile("pdf", cfg)
	assert.Equal(t, 96, p.OverlapSize) // 1200 * 0.08
}

func TestResolveChunkProfile_DisabledUsesStaticDefault(t *testing.T) {
	cfg := pipeline.DefaultChunkProfileConfig()
	cfg.Enabled = false

	for _, docType := range []string{"markdown", "pdf", "code", "nonsense"} {
		p := pipeline.ResolveChunkProfile(docType, cfg)
		assert.Equal(t, 800, p.MaxChunkSize, "type %q", docType)
		assert.Equal(t, 150, p.MinChunkSize)
		assert.Equal(t, 80, p.OverlapSize)
		assert.Equal(t, "paragraph", p.Strategy)
	}
}

func TestChunkProfileConfig_Validate(t *testing.T) {
	assert.NoError(t, pipeline.DefaultChunkProfileConfig().Validate())

	bad := pipeline.DefaultChunkProfileConfig()
	bad.Mode = "adaptive"
	assert.Error(t, bad.Validate())

	bad = pipeline.DefaultChunkProfileConfig()
	bad.DynamicBaseRatio = 0.25
	assert.Error(t, bad.Validate(), "base ratio above ceiling must be rejected")

	bad = pipeline.DefaultChunkProfileConfig()
	bad.DynamicFloor = 0.2
	assert.Error(t, bad.Validate(), "floor above ceiling must be rejected")
}

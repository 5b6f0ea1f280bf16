package pipeline

import (
	"fmt"
	"math"
)

// OverlapMode selects how chunk overlap is derived from the profile.
type OverlapMode string

const (
	// OverlapFixed and OverlapRatio both multiply the max chunk size by the
	// profile's overlap ratio.
	OverlapFixed OverlapMode = "fixed"
	OverlapRatio OverlapMode = "ratio"
	// OverlapDynamic nudges the base ratio toward a floor for large chunks
	// and toward a ceiling for small ones.
	OverlapDynamic OverlapMode = "dynamic"
)

// ChunkProfile is the sizing profile handed to the document-chunking
// collaborator for one document type.
type ChunkProfile struct {
	MaxChunkSize int
	MinChunkSize int
	OverlapSize  int
	Strategy     string
}

// typeProfile is the configured per-type base profile.
type typeProfile struct {
	MaxChunkSize int
	MinChunkSize int
	OverlapRatio float64
	Strategy     string
}

// ChunkProfileConfig holds the resolver settings.
type ChunkProfileConfig struct {
	// Enabled gates adaptive sizing; when false the static default profile
	// is returned unconditionally.
	Enabled bool
	// Mode selects the overlap computation.
	Mode OverlapMode
	// DynamicBaseRatio is the starting overlap ratio in dynamic mode.
	DynamicBaseRatio float64
	// DynamicFloor and DynamicCeiling bound the dynamic adjustment.
	DynamicFloor   float64
	DynamicCeiling float64
}

// DefaultChunkProfileConfig returns the resolver defaults.
func DefaultChunkProfileConfig() ChunkProfileConfig {
	return ChunkProfileConfig{
		Enabled:          true,
		Mode:             OverlapDynamic,
		DynamicBaseRatio: 0.12,
		DynamicFloor:     0.08,
		DynamicCeiling:   0.18,
	}
}

// Validate checks the resolver configuration.
func (c ChunkProfileConfig) Validate() error {
	switch c.Mode {
	case OverlapFixed, OverlapRatio, OverlapDynamic:
	default:
		return fmt.Errorf("unknown overlap mode %q", c.Mode)
	}
	if c.DynamicFloor < 0 || c.DynamicCeiling > 1 || c.DynamicFloor > c.DynamicCeiling {
		return fmt.Errorf("dynamic overlap bounds invalid: floor=%f ceiling=%f", c.DynamicFloor, c.DynamicCeiling)
	}
	if c.DynamicBaseRatio < c.DynamicFloor || c.DynamicBaseRatio > c.DynamicCeiling {
		return fmt.Errorf("dynamic base ratio %f outside [%f, %f]", c.DynamicBaseRatio, c.DynamicFloor, c.DynamicCeiling)
	}
	return nil
}

// chunkProfiles maps document types to their base profiles. The unknown
// profile doubles as the static default when adaptive sizing is disabled.
var chunkProfiles = map[string]typeProfile{
	"markdown":  {MaxChunkSize: 1000, MinChunkSize: 200, OverlapRatio: 0.10, Strategy: "heading"},
	"html":      {MaxChunkSize: 900, MinChunkSize: 150, OverlapRatio: 0.12, Strategy: "block"},
	"pdf":       {MaxChunkSize: 1200, MinChunkSize: 250, OverlapRatio: 0.15, Strategy: "page"},
	"code":      {MaxChunkSize: 600, MinChunkSize: 100, OverlapRatio: 0.08, Strategy: "symbol"},
	"plaintext": {MaxChunkSize: 800, MinChunkSize: 150, OverlapRatio: 0.10, Strategy: "paragraph"},
	"unknown":   {MaxChunkSize: 800, MinChunkSize: 150, OverlapRatio: 0.10, Strategy: "paragraph"},
}

// ResolveChunkProfile maps a document type to its chunk sizing profile.
// Unrecognized types fall back to the unknown profile.
//
// Dynamic mode shifts the overlap ratio by 0.02 at the 1000/500 chunk-size
// thresholds. The magnitude and thresholds are kept exactly as tuned in
// production; treat them as tunable, not load-bearing.
func ResolveChunkProfile(documentType string, cfg ChunkProfileConfig) ChunkProfile {
	base := chunkProfiles["unknown"]
	if !cfg.Enabled {
		return ChunkProfile{
			MaxChunkSize: base.MaxChunkSize,
			MinChunkSize: base.MinChunkSize,
			OverlapSize:  overlapSize(base.MaxChunkSize, base.OverlapRatio),
			Strategy:     base.Strategy,
		}
	}

	profile, ok := chunkProfiles[documentType]
	if !ok {
		profile = base
	}

	ratio := profile.OverlapRatio
	if cfg.Mode == OverlapDynamic {
		ratio = cfg.DynamicBaseRatio
		switch {
		case profile.MaxChunkSize > 1000:
			ratio -= 0.02
			if ratio < cfg.DynamicFloor {
				ratio = cfg.DynamicFloor
			}
		case profile.MaxChunkSize < 500:
			ratio += 0.02
			if ratio > cfg.DynamicCeiling {
				ratio = cfg.DynamicCeiling
			}
		}
	}

	return ChunkProfile{
		MaxChunkSize: profile.MaxChunkSize,
		MinChunkSize: profile.MinChunkSize,
		OverlapSize:  overlapSize(profile.MaxChunkSize, ratio),
		Strategy:     profile.Strategy,
	}
}

// overlapSize rounds rather than truncates so ratios like 0.12 land on the
// intended character count.
func overlapSize(maxChunkSize int, ratio float64) int {
	return int(math.Round(float64(maxChunkSize) * ratio))
}

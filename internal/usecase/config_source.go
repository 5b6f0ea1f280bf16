package usecase

import (
	"fmt"
	"sync/atomic"
)

// ConfigSource is the shared, read-only view of the active PipelineConfig.
// Reconfiguration replaces the pointer atomically; in-flight requests keep
// the snapshot they started with and never see a half-updated config.
type ConfigSource struct {
	current atomic.Pointer[PipelineConfig]
}

// NewConfigSource validates and installs the initial configuration.
func NewConfigSource(cfg PipelineConfig) (*ConfigSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config rejected: %w", err)
	}
	s := &ConfigSource{}
	s.current.Store(&cfg)
	return s, nil
}

// Current returns the active configuration snapshot.
func (s *ConfigSource) Current() PipelineConfig {
	return *s.current.Load()
}

// Swap validates and installs a new configuration. Invalid configs are
// rejected and the active one stays in place.
func (s *ConfigSource) Swap(cfg PipelineConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("pipeline config rejected: %w", err)
	}
	s.current.Store(&cfg)
	return nil
}

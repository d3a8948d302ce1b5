// Package config assembles the engine's runtime configuration from flags,
// environment variables, and a config file, and loads the optional custom
// pattern file referenced by it.
//
// Settings mirrors the configuration surface: the fields that map directly
// onto guard.GuardConfig, plus the ambient options (streaming window sizing,
// logging, pattern-file watching) that sit around the engine itself.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var settingsValidator = validator.New()

// Settings is the fully-resolved configuration for a promptguard process.
type Settings struct {
	RiskThreshold           int  `mapstructure:"risk_threshold" yaml:"risk_threshold" validate:"min=0,max=100"`
	EnableSanitization      bool `mapstructure:"enable_sanitization" yaml:"enable_sanitization"`
	EnableContextSeparation bool `mapstructure:"enable_context_separation" yaml:"enable_context_separation"`
	MaxProcessingTimeMs     int  `mapstructure:"max_processing_time_ms" yaml:"max_processing_time_ms" validate:"min=0"`
	EnablePerfMonitoring    bool `mapstructure:"enable_perf_monitoring" yaml:"enable_perf_monitoring"`

	// TrustLevel is the default trust assigned to unmarked streaming input.
	TrustLevel string `mapstructure:"trust_level" yaml:"trust_level" validate:"oneof=system user tool-output untrusted"`

	// ChunkSize and OverlapSize size the streaming shell's sliding window.
	ChunkSize   int `mapstructure:"chunk_size" yaml:"chunk_size" validate:"min=0"`
	OverlapSize int `mapstructure:"overlap_size" yaml:"overlap_size" validate:"min=0"`

	// CustomPatternsFile points at a YAML file decoded into custom_patterns
	// and custom_rules. WatchPatternsFile is decoded and validated, but no
	// command in this module starts a watch from it; WatchPatternFile is the
	// fsnotify watcher a caller can start itself.
	CustomPatternsFile string `mapstructure:"custom_patterns_file" yaml:"custom_patterns_file,omitempty"`
	WatchPatternsFile  bool   `mapstructure:"watch_patterns_file" yaml:"watch_patterns_file,omitempty"`

	// Ambient logging configuration; not part of GuardConfig itself.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json,omitempty"`
	LogDir   string `mapstructure:"log_dir" yaml:"log_dir,omitempty"`
}

// Default returns the engine's default settings.
func Default() Settings {
	return Settings{
		RiskThreshold:           60,
		EnableSanitization:      true,
		EnableContextSeparation: true,
		MaxProcessingTimeMs:     200,
		EnablePerfMonitoring:    true,
		TrustLevel:              "user",
		ChunkSize:               1024,
		OverlapSize:             128,
		LogLevel:                "info",
	}
}

// Validate checks field constraints plus the cross-field invariant that
// OverlapSize must be smaller than ChunkSize.
func Validate(s Settings) error {
	if err := settingsValidator.Struct(s); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if s.OverlapSize >= s.ChunkSize {
		return fmt.Errorf("config validation failed: %w", errOverlapNotSmallerThanChunk)
	}
	return nil
}

var errOverlapNotSmallerThanChunk = errors.New("overlap_size must be smaller than chunk_size")

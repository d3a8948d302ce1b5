package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PROMPTGUARD"

// LoadOptions controls where Load looks for a config file and lets a caller
// (typically the CLI's flag parser) inject explicit overrides.
type LoadOptions struct {
	// ProjectDir is searched for a "promptguard.yaml" file.
	// Empty uses the current working directory.
	ProjectDir string

	// ConfigFile overrides both the user and project config file lookup
	// with a single explicit path.
	ConfigFile string

	// FlagOverrides are applied last, taking precedence over the config
	// file and environment. Keys are Settings mapstructure tags, e.g.
	// "risk_threshold".
	FlagOverrides map[string]any
}

// Load resolves Settings from, in ascending precedence: built-in defaults,
// the user config file (~/.promptguard/config.yaml), the project config file
// (ProjectDir/promptguard.yaml), environment variables prefixed PROMPTGUARD_,
// then FlagOverrides.
func Load(opts LoadOptions) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	userPath, projectPath := ConfigPaths(opts.ProjectDir, opts.ConfigFile)
	if err := mergeConfigFile(v, userPath); err != nil {
		return Settings{}, fmt.Errorf("loading user config: %w", err)
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return Settings{}, fmt.Errorf("loading project config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range opts.FlagOverrides {
		v.Set(key, val)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("risk_threshold", d.RiskThreshold)
	v.SetDefault("enable_sanitization", d.EnableSanitization)
	v.SetDefault("enable_context_separation", d.EnableContextSeparation)
	v.SetDefault("max_processing_time_ms", d.MaxProcessingTimeMs)
	v.SetDefault("enable_perf_monitoring", d.EnablePerfMonitoring)
	v.SetDefault("trust_level", d.TrustLevel)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("overlap_size", d.OverlapSize)
	v.SetDefault("custom_patterns_file", d.CustomPatternsFile)
	v.SetDefault("watch_patterns_file", d.WatchPatternsFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_json", d.LogJSON)
	v.SetDefault("log_dir", d.LogDir)
}

// ConfigPaths returns the user and project config file paths that Load
// consults. An explicit configFile short-circuits both to the same path.
func ConfigPaths(projectDir, configFile string) (userPath, projectPath string) {
	if configFile != "" {
		return configFile, configFile
	}
	home, err := os.UserHomeDir()
	if err == nil {
		userPath = filepath.Join(home, ".promptguard", "config.yaml")
	}
	return userPath, projectConfigPath(projectDir, "")
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return "promptguard.yaml"
	}
	return filepath.Join(projectDir, "promptguard.yaml")
}

// mergeConfigFile merges path into v if it exists. An empty path is a
// no-op; a missing file is a no-op; any other stat or parse error is
// returned. Format (yaml/toml/json) is inferred from the extension.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a config file", path)
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return v.MergeConfigMap(fv.AllSettings())
}

// WriteSettingsFile writes settings as YAML to path, creating parent
// directories as needed. Used by the interactive configuration wizard to
// persist the operator's choices.
func WriteSettingsFile(path string, settings Settings) error {
	if path == "" {
		return fmt.Errorf("write settings: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

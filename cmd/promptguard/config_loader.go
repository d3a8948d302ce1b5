package main

import (
	"fmt"

	"github.com/wardenlabs/promptguard/internal/config"
	"github.com/wardenlabs/promptguard/pkg/guard"
	"github.com/wardenlabs/promptguard/pkg/logging"
)

// loadSettings resolves the effective Settings for this invocation: config
// file(s) and environment, then the root command's persistent flags layered
// on top as FlagOverrides, matching internal/config.Load's precedence.
func loadSettings(flags *rootFlags) (config.Settings, error) {
	overrides := map[string]any{}
	if flags.riskThreshold >= 0 {
		overrides["risk_threshold"] = flags.riskThreshold
	}
	if flags.trustLevel != "" {
		overrides["trust_level"] = flags.trustLevel
	}
	if flags.noSanitize {
		overrides["enable_sanitization"] = false
	}
	if flags.logLevel != "" {
		overrides["log_level"] = flags.logLevel
	}

	settings, err := config.Load(config.LoadOptions{
		ConfigFile:    flags.configFile,
		FlagOverrides: overrides,
	})
	if err != nil {
		return config.Settings{}, fmt.Errorf("resolving configuration: %w", err)
	}
	return settings, nil
}

// buildContext assembles a guard.Context from resolved settings, merging in
// any custom pattern file it references.
func buildContext(settings config.Settings, logger *logging.Logger) (*guard.Context, error) {
	guardCfg := settings.GuardConfig()

	if settings.CustomPatternsFile != "" {
		pf, err := config.LoadPatternFile(settings.CustomPatternsFile)
		if err != nil {
			return nil, err
		}
		guardCfg.CustomPatterns = pf.CustomPatterns
		guardCfg.CustomRules = pf.CustomRules
	}

	gctx, err := guard.NewContext(guardCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("constructing guard context: %w", err)
	}
	return gctx, nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/promptguard/internal/config"
)

var configureOutPath string

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively build a promptguard config file",
	Long: `configure walks through the engine's tunable settings with an
interactive form and writes the result to a YAML config file, defaulting to
~/.promptguard/config.yaml.`,
	Run: runConfigure,
}

func init() {
	configureCmd.Flags().StringVarP(&configureOutPath, "output", "o", "",
		"Where to write the config file (default: ~/.promptguard/config.yaml)")
}

func runConfigure(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := flags.outputConfig()

	settings := config.Default()

	var riskThresholdStr = strconv.Itoa(settings.RiskThreshold)
	var chunkSizeStr = strconv.Itoa(settings.ChunkSize)
	var overlapSizeStr = strconv.Itoa(settings.OverlapSize)
	var customPatternsFile string
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default trust level for unmarked input").
				Options(
					huh.NewOption("system (most trusted)", "system"),
					huh.NewOption("user", "user"),
					huh.NewOption("tool-output", "tool-output"),
					huh.NewOption("untrusted (least trusted)", "untrusted"),
				).
				Value(&settings.TrustLevel),
			huh.NewInput().
				Title("Risk threshold (0-100)").
				Placeholder("60").
				Value(&riskThresholdStr),
			huh.NewConfirm().
				Title("Sanitize unsafe input?").
				Affirmative("Yes").
				Negative("No").
				Value(&settings.EnableSanitization),
			huh.NewConfirm().
				Title("Separate trust segments (system/user/tool-output markers)?").
				Affirmative("Yes").
				Negative("No").
				Value(&settings.EnableContextSeparation),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Streaming chunk size (characters)").
				Placeholder("1024").
				Value(&chunkSizeStr),
			huh.NewInput().
				Title("Streaming overlap size (characters)").
				Placeholder("128").
				Value(&overlapSizeStr),
			huh.NewInput().
				Title("Custom pattern file (optional)").
				Placeholder("patterns.yaml").
				Value(&customPatternsFile),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&settings.LogLevel),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		os.Exit(OutputResult(out, "configure", start, nil, false, err))
	}

	if !confirmed {
		fmt.Println("Cancelled; nothing written.")
		os.Exit(ExitSuccess)
	}

	settings.RiskThreshold = parseIntOrDefault(riskThresholdStr, config.Default().RiskThreshold)
	settings.ChunkSize = parseIntOrDefault(chunkSizeStr, config.Default().ChunkSize)
	settings.OverlapSize = parseIntOrDefault(overlapSizeStr, config.Default().OverlapSize)
	settings.CustomPatternsFile = customPatternsFile

	if err := config.Validate(settings); err != nil {
		os.Exit(OutputResult(out, "configure", start, nil, false, err))
	}

	path := configureOutPath
	if path == "" {
		path, _ = config.ConfigPaths("", "")
	}
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".promptguard", "config.yaml")
	}

	if err := config.WriteSettingsFile(path, settings); err != nil {
		os.Exit(OutputResult(out, "configure", start, nil, false, err))
	}

	os.Exit(OutputResult(out, "configure", start, configureResult{Path: path}, false, nil))
}

type configureResult struct {
	Path string `json:"path"`
}

func (r configureResult) PrintText() {
	fmt.Printf("Wrote configuration to %s\n", r.Path)
}

func parseIntOrDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

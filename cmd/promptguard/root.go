package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/promptguard/pkg/logging"
)

// rootFlags holds the persistent flags shared by every subcommand.
// riskThreshold uses -1 as "unset" so loadSettings can tell a deliberate
// --risk-threshold 0 apart from the flag never being passed.
type rootFlags struct {
	configFile    string
	jsonOutput    bool
	compact       bool
	quiet         bool
	riskThreshold int
	trustLevel    string
	noSanitize    bool
	logLevel      string
}

var flags = &rootFlags{riskThreshold: -1}

var rootCmd = &cobra.Command{
	Use:   "promptguard",
	Short: "Detect and sanitize prompt-injection and sensitive-data attempts",
	Long: `promptguard scans text for prompt-injection attempts, context-hijacking
markers, and sensitive-data leaks, scoring the risk and optionally sanitizing
the result before it reaches a model or a downstream system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"Path to a promptguard config file (overrides the usual search path)")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false,
		"Emit machine-readable JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&flags.compact, "compact", false,
		"Compact (non-indented) JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false,
		"Suppress output; rely on the exit code")
	rootCmd.PersistentFlags().IntVar(&flags.riskThreshold, "risk-threshold", -1,
		"Override the configured risk threshold (0-100)")
	rootCmd.PersistentFlags().StringVar(&flags.trustLevel, "trust", "",
		"Override the default trust level: system, user, tool-output, untrusted")
	rootCmd.PersistentFlags().BoolVar(&flags.noSanitize, "no-sanitize", false,
		"Disable sanitization; report findings only")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Override the configured log level: debug, info, warn, error")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)
}

func (f *rootFlags) outputConfig() OutputConfig {
	return OutputConfig{JSON: f.jsonOutput, Compact: f.compact, Quiet: f.quiet}
}

// stdoutIsTerminal reports whether stdout is an interactive terminal, used
// to decide whether the stream command defaults to its Bubble Tea view or
// plain line-oriented output when piped.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// stdinIsTerminal reports whether stdin is an interactive terminal, used to
// tell "no input given" apart from "input is being piped in".
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func newLogger(service, level string) *logging.Logger {
	cfg := logging.Config{Service: service, Quiet: true}
	switch level {
	case "debug":
		cfg.Level = logging.LevelDebug
	case "warn":
		cfg.Level = logging.LevelWarn
	case "error":
		cfg.Level = logging.LevelError
	default:
		cfg.Level = logging.LevelInfo
	}
	return logging.New(cfg)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Exit codes mirror the distinction a CI pipeline needs: a clean scan, a
// scan that found something worth failing on, and an operational error.
const (
	ExitSuccess  = 0
	ExitFindings = 1
	ExitError    = 2
)

// OutputConfig controls how a command renders its result.
type OutputConfig struct {
	JSON    bool
	Compact bool
	Quiet   bool
}

// CommandResult is the envelope every subcommand's JSON output is wrapped
// in, so a caller scripting against promptguard sees a stable shape
// regardless of which command produced it.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  string      `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

const apiVersion = "v1"

// OutputJSON encodes data to stdout, indented unless compact is set.
func OutputJSON(data interface{}, compact bool) error {
	enc := json.NewEncoder(os.Stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// OutputError reports a command failure either as a JSON envelope or as a
// plain stderr line, depending on mode.
func OutputError(jsonMode bool, cmd string, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: apiVersion,
			Command:    cmd,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		_ = OutputJSON(result, false)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

// OutputResult is the central dispatcher every subcommand funnels through:
// it renders data in the configured mode and returns the process exit code.
// hasFindings distinguishes "ran cleanly but flagged something" (ExitFindings)
// from a plain success, so a CI step can fail the build on detection without
// needing to parse output.
func OutputResult(cfg OutputConfig, cmd string, start time.Time, data interface{}, hasFindings bool, err error) int {
	if err != nil {
		OutputError(cfg.JSON, cmd, "command failed", err)
		return ExitError
	}

	if !cfg.Quiet {
		if cfg.JSON {
			result := CommandResult{
				APIVersion: apiVersion,
				Command:    cmd,
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
				DurationMs: time.Since(start).Milliseconds(),
				Success:    true,
				Data:       data,
			}
			if encErr := OutputJSON(result, cfg.Compact); encErr != nil {
				fmt.Fprintf(os.Stderr, "failed to encode JSON result: %v\n", encErr)
				return ExitError
			}
		} else if printer, ok := data.(textPrinter); ok {
			printer.PrintText()
		}
	}

	if hasFindings {
		return ExitFindings
	}
	return ExitSuccess
}

// textPrinter is implemented by result DTOs that know how to render
// themselves for a human reading a terminal, as an alternative to JSON.
type textPrinter interface {
	PrintText()
}

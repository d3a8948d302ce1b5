package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

// scanMatch is the JSON/text-renderable projection of a guard.PatternMatch.
type scanMatch struct {
	PatternID  string `json:"pattern_id"`
	Category   string `json:"category"`
	Severity   string `json:"severity"`
	Confidence int    `json:"confidence"`
	Matched    string `json:"matched"`
	Index      int    `json:"index"`
}

// scanResult is the scan command's JSON/text result DTO.
type scanResult struct {
	Safe      bool        `json:"safe"`
	Risk      int         `json:"risk"`
	Sanitized string      `json:"sanitized,omitempty"`
	Matches   []scanMatch `json:"matches"`
}

func (r scanResult) PrintText() {
	status := "SAFE"
	if !r.Safe {
		status = "UNSAFE"
	}
	fmt.Printf("%-8s  risk=%d\n", status, r.Risk)
	if len(r.Matches) == 0 {
		fmt.Println("No matches.")
		return
	}
	fmt.Println()
	fmt.Println("Matches:")
	for _, m := range r.Matches {
		fmt.Printf("  %-8s  %s  confidence=%d\n", strings.ToUpper(m.Severity), m.PatternID, m.Confidence)
		fmt.Printf("            category=%s match=%q\n", m.Category, truncateForDisplay(m.Matched, 60))
	}
	if r.Sanitized != "" {
		fmt.Println()
		fmt.Println("Sanitized:")
		fmt.Println("  " + r.Sanitized)
	}
}

func truncateForDisplay(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

var (
	scanTrustFlag string
	scanFile      string
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Scan a single piece of text for injection and sensitive-data patterns",
	Long: `scan runs one input through the detection engine and reports its risk
score, every pattern match, and (unless --no-sanitize is set) the sanitized
text.

The input is taken from the positional argument, --file, or stdin, in that
order.

Exit Codes:
  0 = Safe (risk below threshold)
  1 = Unsafe (risk at or above threshold)
  2 = Error`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanTrustFlag, "trust", string(guard.TrustUser),
		"Trust level for this input: system, user, tool-output, untrusted")
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "",
		"Read the input from this file when no text argument is given (instead of stdin)")
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := flags.outputConfig()

	input, err := resolveScanInput(args, scanFile)
	if err != nil {
		os.Exit(OutputResult(out, "scan", start, nil, false, err))
	}

	settings, err := loadSettings(flags)
	if err != nil {
		os.Exit(OutputResult(out, "scan", start, nil, false, err))
	}

	logger := newLogger("cli", settings.LogLevel)
	defer logger.Close()

	gctx, err := buildContext(settings, logger)
	if err != nil {
		os.Exit(OutputResult(out, "scan", start, nil, false, err))
	}

	trust := guard.TrustLevel(scanTrustFlag)
	if flags.trustLevel != "" {
		trust = guard.TrustLevel(flags.trustLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	detection, err := gctx.Scan(ctx, input, trust)
	if err != nil {
		os.Exit(OutputResult(out, "scan", start, nil, false, err))
	}

	result := scanResult{
		Safe:      detection.Safe,
		Risk:      detection.Risk,
		Sanitized: detection.Sanitized,
		Matches:   make([]scanMatch, 0, len(detection.Matches)),
	}
	for _, m := range detection.Matches {
		result.Matches = append(result.Matches, scanMatch{
			PatternID:  m.PatternID,
			Category:   m.Category,
			Severity:   string(m.Severity),
			Confidence: m.Confidence,
			Matched:    m.Matched,
			Index:      m.Index,
		})
	}

	os.Exit(OutputResult(out, "scan", start, result, !detection.Safe, nil))
}

// resolveScanInput reads the text to scan from the positional argument, a
// --file path, or stdin, in that order, matching scan's documented
// precedence.
func resolveScanInput(args []string, file string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}
	if stdinIsTerminal() {
		return "", fmt.Errorf("no input: pass text as an argument, --file, or pipe it via stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

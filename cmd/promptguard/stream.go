package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/promptguard/pkg/guard"
	"github.com/wardenlabs/promptguard/pkg/guard/stream"
)

var (
	streamFile  string
	streamNoTUI bool
)

// streamChunkResult is one window's outcome, rendered in plain/JSON mode.
type streamChunkResult struct {
	Chunk      int    `json:"chunk"`
	Position   uint64 `json:"position"`
	Risk       int    `json:"risk"`
	Safe       bool   `json:"safe"`
	NewMatches int    `json:"new_matches"`
	IsComplete bool   `json:"is_complete"`
}

// streamResult is the stream command's JSON/text result DTO.
type streamResult struct {
	Chunks  []streamChunkResult `json:"chunks"`
	Summary guard.StreamSummary `json:"summary"`
}

func (r streamResult) PrintText() {
	for _, c := range r.Chunks {
		status := "safe"
		if !c.Safe {
			status = "unsafe"
		}
		fmt.Printf("chunk %-4d pos=%-8d risk=%-4d %-7s new_matches=%d\n",
			c.Chunk, c.Position, c.Risk, status, c.NewMatches)
	}
	fmt.Println()
	fmt.Printf("total_chunks=%d total_matches=%d highest_risk=%d avg_risk=%.1f\n",
		r.Summary.TotalChunks, r.Summary.TotalMatches, r.Summary.HighestRisk, r.Summary.AverageRisk)
}

var streamCmd = &cobra.Command{
	Use:   "stream [text]",
	Short: "Sweep long text through the chunked streaming shell",
	Long: `stream runs arbitrarily long text through the overlap-buffered
streaming shell, reporting risk and matches per window.

On an interactive terminal it launches a live view of the sweep; with --json,
--quiet, --no-tui, or a non-terminal stdout it falls back to a per-chunk
summary printed after the sweep completes.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStream,
}

func init() {
	streamCmd.Flags().StringVarP(&streamFile, "file", "f", "",
		"Read the input from this file when no text argument is given (instead of stdin)")
	streamCmd.Flags().BoolVar(&streamNoTUI, "no-tui", false,
		"Disable the interactive view even on a terminal")
}

func runStream(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := flags.outputConfig()

	input, err := resolveScanInput(args, streamFile)
	if err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, err))
	}

	settings, err := loadSettings(flags)
	if err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, err))
	}

	logger := newLogger("stream", settings.LogLevel)
	defer logger.Close()

	gctx, err := buildContext(settings, logger)
	if err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, err))
	}

	cfg := settings.StreamConfig()
	if flags.trustLevel != "" {
		cfg.TrustLevel = guard.TrustLevel(flags.trustLevel)
	}

	useTUI := !streamNoTUI && !out.JSON && !out.Quiet && stdoutIsTerminal()
	if useTUI {
		runStreamTUI(gctx, cfg, input, start, out)
		return
	}

	result, err := sweepPlain(gctx, cfg, input)
	os.Exit(OutputResult(out, "stream", start, result, result.Summary.HighestRisk >= settings.RiskThreshold, err))
}

func runStreamTUI(gctx *guard.Context, cfg stream.Config, input string, start time.Time, out OutputConfig) {
	model, err := newStreamModel(gctx, cfg, input)
	if err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, err))
	}

	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, fmt.Errorf("running stream view: %w", err)))
	}

	fm := final.(streamModel)
	if fm.err != nil {
		os.Exit(OutputResult(out, "stream", start, nil, false, fm.err))
	}
	os.Exit(ExitSuccess)
}

// sweepPlain runs the whole-text Sweep helper, used for non-interactive
// output modes.
func sweepPlain(gctx *guard.Context, cfg stream.Config, input string) (streamResult, error) {
	shell, err := stream.NewShell(gctx, cfg)
	if err != nil {
		return streamResult{}, err
	}

	outcomes, summary, err := shell.Sweep(context.Background(), input)
	if err != nil {
		return streamResult{}, err
	}

	result := streamResult{Summary: summary, Chunks: make([]streamChunkResult, 0, len(outcomes))}
	for i, o := range outcomes {
		result.Chunks = append(result.Chunks, streamChunkResult{
			Chunk:      i,
			Position:   o.Position,
			Risk:       o.Result.Risk,
			Safe:       o.Result.Safe,
			NewMatches: len(o.Matches),
			IsComplete: o.IsComplete,
		})
	}
	return result, nil
}

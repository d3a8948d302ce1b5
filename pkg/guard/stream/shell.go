// Package stream implements the chunked, stateful streaming shell (C7)
// over the guard engine: overlap-buffered chunk processing, a
// backpressure-honoring channel transform, a pull-style generator, and a
// whole-text sweep helper.
package stream

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

// Config configures a Shell, per §4.7.
type Config struct {
	ChunkSize          int
	OverlapSize        int
	TrustLevel         guard.TrustLevel
	EnableSanitization bool
}

// DefaultConfig returns the spec's default window sizing.
func DefaultConfig() Config {
	return Config{ChunkSize: 1024, OverlapSize: 128, TrustLevel: guard.TrustUser, EnableSanitization: true}
}

// Shell scans arbitrarily long text as a sequence of bounded, overlapping
// chunks, preserving cross-chunk matches.
type Shell struct {
	ctx *guard.Context
	cfg Config

	buffer           []rune
	absolutePosition uint64
	chunkCount       int
	completed        bool

	matches   []guard.PatternMatch
	matchSeen map[string]struct{}
}

// NewShell builds a Shell bound to a guard.Context.
func NewShell(gctx *guard.Context, cfg Config) (*Shell, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.OverlapSize <= 0 {
		cfg.OverlapSize = DefaultConfig().OverlapSize
	}
	if cfg.OverlapSize >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap_size must be < chunk_size", guard.ErrStream)
	}
	return &Shell{
		ctx:       gctx,
		cfg:       cfg,
		matchSeen: make(map[string]struct{}),
	}, nil
}

// Reset clears the shell's buffer and cumulative match list, returning it
// to its initial state.
func (s *Shell) Reset() {
	s.buffer = nil
	s.absolutePosition = 0
	s.chunkCount = 0
	s.completed = false
	s.matches = nil
	s.matchSeen = make(map[string]struct{})
}

// Close releases the shell's buffer and accumulated matches.
func (s *Shell) Close() {
	s.buffer = nil
	s.matches = nil
	s.matchSeen = nil
}

// Matches returns the deduplicated cumulative match list across every
// window processed so far.
func (s *Shell) Matches() []guard.PatternMatch {
	return append([]guard.PatternMatch(nil), s.matches...)
}

// ProcessChunk implements §4.7's process_chunk operation. An empty string
// is the final-flush sentinel.
func (s *Shell) ProcessChunk(ctx context.Context, chunk string) (guard.ChunkOutcome, error) {
	if s.completed {
		return guard.ChunkOutcome{}, fmt.Errorf("%w: ProcessChunk called after completion", guard.ErrStream)
	}

	if !utf8.ValidString(chunk) {
		s.completed = true
		return guard.ChunkOutcome{}, fmt.Errorf("%w: chunk is not valid UTF-8", guard.ErrStream)
	}

	isFinal := chunk == ""
	if !isFinal {
		s.buffer = append(s.buffer, []rune(chunk)...)
	}
	s.chunkCount++

	if !isFinal && len(s.buffer) < s.cfg.ChunkSize {
		return guard.ChunkOutcome{
			Position:   s.absolutePosition,
			IsComplete: false,
		}, nil
	}

	full := s.buffer
	window := full
	if !isFinal {
		window = full[:s.cfg.ChunkSize]
	}

	result, err := s.ctx.Scan(ctx, string(window), s.cfg.TrustLevel)
	if err != nil {
		s.completed = true
		return guard.ChunkOutcome{}, fmt.Errorf("%w: %v", guard.ErrStream, err)
	}

	shifted := make([]guard.PatternMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		shiftedMatch := m
		shiftedMatch.Index = m.Index + int(s.absolutePosition)
		shifted = append(shifted, shiftedMatch)
		key := fmt.Sprintf("%s\x00%d\x00%s", shiftedMatch.PatternID, shiftedMatch.Index, shiftedMatch.Matched)
		if _, dup := s.matchSeen[key]; !dup {
			s.matchSeen[key] = struct{}{}
			s.matches = append(s.matches, shiftedMatch)
		}
	}

	outcome := guard.ChunkOutcome{
		Result:     result,
		Matches:    shifted,
		IsComplete: isFinal,
	}

	if isFinal {
		s.completed = true
		s.buffer = nil
		outcome.Position = s.absolutePosition + uint64(len(window))
	} else {
		advance := s.cfg.ChunkSize - s.cfg.OverlapSize
		if advance < 1 {
			advance = 1
		}
		remainder := append([]rune(nil), full[advance:]...)
		s.buffer = remainder
		s.absolutePosition += uint64(advance)
		outcome.Position = s.absolutePosition
	}

	return outcome, nil
}

// Sweep consumes an entire string as a whole-text sweep, returning every
// per-window outcome plus a summary, per §4.7.
func (s *Shell) Sweep(ctx context.Context, text string) ([]guard.ChunkOutcome, guard.StreamSummary, error) {
	s.Reset()
	var outcomes []guard.ChunkOutcome
	var totalRisk, highest float64
	start := time.Now()

	runes := []rune(text)
	pos := 0
	for pos < len(runes) {
		end := pos + s.cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		outcome, err := s.ProcessChunk(ctx, string(runes[pos:end]))
		if err != nil {
			return nil, guard.StreamSummary{}, err
		}
		outcomes = append(outcomes, outcome)
		totalRisk += float64(outcome.Result.Risk)
		if float64(outcome.Result.Risk) > highest {
			highest = float64(outcome.Result.Risk)
		}
		pos = end
	}
	final, err := s.ProcessChunk(ctx, "")
	if err != nil {
		return nil, guard.StreamSummary{}, err
	}
	outcomes = append(outcomes, final)
	totalRisk += float64(final.Result.Risk)
	if float64(final.Result.Risk) > highest {
		highest = float64(final.Result.Risk)
	}

	avg := 0.0
	if len(outcomes) > 0 {
		avg = totalRisk / float64(len(outcomes))
	}

	summary := guard.StreamSummary{
		TotalChunks:      s.chunkCount,
		TotalMatches:     len(s.matches),
		HighestRisk:      int(highest),
		AverageRisk:      avg,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	return outcomes, summary, nil
}

package stream

import (
	"context"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

// Generator yields per-window outcomes lazily, driven by caller pull
// (Next) rather than an internal goroutine, per §4.7's "Generator" stream
// adaptor.
type Generator struct {
	shell  *Shell
	chunks []string
	pos    int
	done   bool
}

// NewGenerator builds a Generator over a pre-chunked text, sized to the
// shell's configured ChunkSize.
func NewGenerator(shell *Shell, text string) *Generator {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += shell.cfg.ChunkSize {
		end := i + shell.cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return &Generator{shell: shell, chunks: chunks}
}

// Next advances the generator by one window, returning (outcome, true) for
// each produced window and then one final (outcome, true) for the flush;
// subsequent calls return (zero, false).
func (g *Generator) Next(ctx context.Context) (guard.ChunkOutcome, bool, error) {
	if g.done {
		return guard.ChunkOutcome{}, false, nil
	}
	if g.pos < len(g.chunks) {
		chunk := g.chunks[g.pos]
		g.pos++
		outcome, err := g.shell.ProcessChunk(ctx, chunk)
		return outcome, true, err
	}
	g.done = true
	outcome, err := g.shell.ProcessChunk(ctx, "")
	return outcome, true, err
}

package stream

import (
	"context"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

// Transform adapts a Shell into a channel-based pipeline stage: it reads
// text chunks from in, runs each through the shell, and writes a
// DetectionResult to out for every window that yielded at least one match,
// followed by a terminal flush result. The out channel is unbuffered so
// exactly one item is enqueued per completed window and the consumer's
// readiness gates production (§4.7 backpressure).
func Transform(ctx context.Context, shell *Shell, in <-chan string, out chan<- guard.DetectionResult) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				outcome, err := shell.ProcessChunk(ctx, "")
				if err != nil {
					return err
				}
				select {
				case out <- outcome.Result:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}
			outcome, err := shell.ProcessChunk(ctx, chunk)
			if err != nil {
				return err
			}
			if len(outcome.Matches) == 0 {
				continue
			}
			select {
			case out <- outcome.Result:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

package guard

import (
	"context"
	"runtime"
	"sync"
)

// ScanBatchParallel fans ScanBatch out across a bounded worker pool,
// collecting results back into input order. Grounded on the teacher's
// services/code_buddy/safety/trust/zone_detector.go batch-classification
// pattern (goroutines + sync.WaitGroup + mutex-guarded result slice),
// reworked from code-graph nodes to scan items.
//
// workers <= 0 defaults to runtime.GOMAXPROCS(0).
func (c *Context) ScanBatchParallel(ctx context.Context, items []ScanItem, workers int) ([]DetectionResult, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]DetectionResult, len(items))
	errs := make([]error, len(items))

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := c.Scan(ctx, items[i].Content, items[i].Trust)
				results[i] = r
				errs[i] = err
			}
		}()
	}

	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

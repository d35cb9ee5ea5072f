// Package workqueue provides the bounded dynamic task queue used by the frame
// extraction and OCR stages: a fixed number of workers stay busy, picking up
// the next pending task the moment one finishes.
package workqueue

import (
	"context"
	"runtime"
	"sync"
)

const (
	minWorkers = 2
	maxWorkers = 8
)

// DefaultWorkers returns the shared concurrency bound for decoder and OCR
// tasks: detected CPU count minus one, clamped to [2, 8].
func DefaultWorkers() int {
	return Clamp(runtime.NumCPU() - 1)
}

// Clamp bounds a requested worker count to [2, 8].
func Clamp(workers int) int {
	if workers < minWorkers {
		return minWorkers
	}
	if workers > maxWorkers {
		return maxWorkers
	}
	return workers
}

// Run executes count tasks across at most workers goroutines. Task results
// are the caller's responsibility; a task failing must not stop its siblings,
// so the task function records its own outcome. Run returns once every
// started task has settled. When ctx is canceled, pending tasks are skipped
// and ctx.Err() is returned.
func Run(ctx context.Context, workers, count int, task func(ctx context.Context, index int)) error {
	if count <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > count {
		workers = count
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for index := range indices {
				task(ctx, index)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < count; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(indices)
	wg.Wait()
	return err
}

package workqueue_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"keyreel/internal/workqueue"
)

func TestClamp(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 2}, {1, 2}, {2, 2}, {5, 5}, {8, 8}, {32, 8},
	}
	for _, tc := range cases {
		if got := workqueue.Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRunExecutesEveryTaskOnce(t *testing.T) {
	const count = 40
	var mu sync.Mutex
	seen := map[int]int{}

	err := workqueue.Run(context.Background(), 4, count, func(_ context.Context, index int) {
		mu.Lock()
		seen[index]++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != count {
		t.Fatalf("executed %d distinct tasks, want %d", len(seen), count)
	}
	for index, times := range seen {
		if times != 1 {
			t.Fatalf("task %d executed %d times", index, times)
		}
	}
}

func TestRunHoldsConcurrencyBound(t *testing.T) {
	const workers = 3
	var inFlight, peak atomic.Int32

	err := workqueue.Run(context.Background(), workers, 30, func(_ context.Context, _ int) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := peak.Load(); got > workers {
		t.Fatalf("peak concurrency %d exceeded bound %d", got, workers)
	}
	if got := peak.Load(); got == 0 {
		t.Fatal("no tasks observed in flight")
	}
}

func TestRunStopsFeedingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var executed atomic.Int32

	err := workqueue.Run(ctx, 2, 1000, func(_ context.Context, index int) {
		if index == 0 {
			cancel()
		}
		executed.Add(1)
		time.Sleep(time.Millisecond)
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := executed.Load(); got == 1000 {
		t.Fatal("cancellation did not stop task feeding")
	}
}

func TestRunZeroTasks(t *testing.T) {
	if err := workqueue.Run(context.Background(), 4, 0, func(context.Context, int) {
		t.Fatal("task should not run")
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

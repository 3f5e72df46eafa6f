package parallel

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestStaticWorkerPoolRunsAllTasks(t *testing.T) {
	pool := NewStaticWorkerPool(4)
	defer pool.Shutdown()

	var count int64
	ctx := context.Background()
	const n = 50
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		if err := pool.Submit(ctx, func() {
			atomic.AddInt64(&count, 1)
			done <- struct{}{}
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		<-done
	}
	if got := atomic.LoadInt64(&count); got != n {
		t.Fatalf("expected %d completions, got %d", n, got)
	}
}

func TestStaticWorkerPoolZeroFallsBackToNumCPU(t *testing.T) {
	pool := NewStaticWorkerPool(0)
	defer pool.Shutdown()
	if pool.GetWorkerCount() <= 0 {
		t.Fatalf("expected positive worker count, got %d", pool.GetWorkerCount())
	}
}

func TestParallelForCoversEveryIndex(t *testing.T) {
	pool := NewStaticWorkerPool(4)
	defer pool.Shutdown()

	const n = 37
	seen := make([]int32, n)
	err := ParallelFor(context.Background(), pool, 0, n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	if err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestParallelForInlineWithNilPool(t *testing.T) {
	const n = 10
	seen := make([]int32, n)
	err := ParallelFor(context.Background(), nil, 0, n, func(i int) {
		seen[i]++
	})
	if err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestParallelForEmptyRange(t *testing.T) {
	if err := ParallelFor(context.Background(), nil, 5, 5, func(int) {
		t.Fatal("fn should not be called on an empty range")
	}); err != nil {
		t.Fatalf("ParallelFor: %v", err)
	}
}

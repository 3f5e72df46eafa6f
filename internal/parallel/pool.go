// Package parallel provides the fixed-size worker pool used to parallelize
// the per-level transition sweep inside the FPCC dynamic program. The outer
// DP walks levels strictly sequentially; within one level, the transitions
// out of every currLevelStart cell are independent and are fanned out across
// this pool, then joined before the next level starts.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when trying to submit tasks to a shutdown pool.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// StaticWorkerPool is a fixed-size goroutine pool. Its size is set once from
// the solver's configured worker count and never rescales, matching the
// single-control-thread-plus-fork-join-sweep concurrency model: there is no
// benefit to elastic scaling for a sweep whose cell count is known up front.
type StaticWorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewStaticWorkerPool creates a worker pool with maxWorkers goroutines. A
// non-positive maxWorkers falls back to runtime.NumCPU(). FPCC builds no pool
// at all for a worker count of 1 or less and runs its sweep inline.
func NewStaticWorkerPool(maxWorkers int) *StaticWorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &StaticWorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}

	return pool
}

func (swp *StaticWorkerPool) worker() {
	defer swp.workerWg.Done()

	for {
		select {
		case task := <-swp.taskChan:
			if task != nil {
				task()
			}
		case <-swp.shutdownChan:
			return
		}
	}
}

// Submit enqueues a task for execution by one of the pool's workers.
func (swp *StaticWorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-swp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case swp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-swp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops all workers. Safe to call more than once.
func (swp *StaticWorkerPool) Shutdown() {
	swp.once.Do(func() {
		close(swp.shutdownChan)
		close(swp.taskChan)
		swp.workerWg.Wait()
	})
}

// GetWorkerCount returns the fixed worker count.
func (swp *StaticWorkerPool) GetWorkerCount() int {
	return swp.maxWorkers
}

// GetQueueDepth returns the number of tasks currently queued.
func (swp *StaticWorkerPool) GetQueueDepth() int {
	return len(swp.taskChan)
}

// ParallelFor runs fn(i) for every i in [lo, hi) across the pool and blocks
// until all of them complete, fanning out one task per index. This is the
// fork half of the per-level transition sweep's fork-join step; the caller
// performs the join implicitly by ParallelFor's return. numWorkers == 1 (or
// a nil pool) runs the loop inline on the calling goroutine, so a solver
// configured for single-threaded operation never pays goroutine overhead.
func ParallelFor(ctx context.Context, pool *StaticWorkerPool, lo, hi int, fn func(i int)) error {
	if hi <= lo {
		return nil
	}
	if pool == nil || pool.GetWorkerCount() <= 1 {
		for i := lo; i < hi; i++ {
			fn(i)
		}
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	for i := lo; i < hi; i++ {
		i := i
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			fn(i)
		})
		if err != nil {
			wg.Done()
			select {
			case errCh <- err:
			default:
			}
		}
	}
	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

package analyzer

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool runs independent frame scans concurrently. Each job must bring
// its own FrameAnalyzer, since decoders are not shared between goroutines.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	start    sync.Once
	stop     sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.start.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// Submit queues a job, blocking while the queue is full. It returns the
// context error if ctx ends before the job is queued.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) error {
	wp.wg.Add(1)
	select {
	case wp.jobQueue <- job:
		return nil
	case <-ctx.Done():
		wp.wg.Done()
		return ctx.Err()
	}
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close shuts down the worker pool. Jobs already queued still run.
func (wp *WorkerPool) Close() {
	wp.stop.Do(func() {
		close(wp.jobQueue)
	})
}

package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name    string
		workers  int
	}{
		{"explicit worker count", 4},
		{"zero falls back to CPU count", 0},
		{"negative falls back to CPU count", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			if pool == nil {
				t.Fatal("Expected non-nil worker pool")
			}
			if tt.workers > 0 && pool.Workers() != tt.workers {
				t.Errorf("Expected %d workers, got %d", tt.workers, pool.Workers())
			}
			if pool.Workers() <= 0 {
				t.Errorf("Expected positive worker count, got %d", pool.Workers())
			}
		})
	}
}

func TestWorkerPool_WaitBlocksUntilJobsFinish(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	const numJobs = 50
	var completed atomic.Int64

	for i := 0; i < numJobs; i++ {
		if err := pool.Submit(context.Background(), func() {
			completed.Add(1)
		}); err != nil {
			t.Fatalf("Unexpected submit error: %v", err)
		}
	}

	pool.Wait()

	if got := completed.Load(); got != numJobs {
		t.Errorf("Expected %d completed jobs after Wait, got %d", numJobs, got)
	}
}

func TestWorkerPool_MultipleStart(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Start() // Should not panic or create duplicate workers
	defer pool.Close()

	var executed atomic.Bool
	if err := pool.Submit(context.Background(), func() {
		executed.Store(true)
	}); err != nil {
		t.Fatalf("Unexpected submit error: %v", err)
	}

	pool.Wait()

	if !executed.Load() {
		t.Error("Expected job to be executed")
	}
}

func TestWorkerPool_SubmitCanceledWhileQueueFull(t *testing.T) {
	pool := NewWorkerPool(1) // queue holds two jobs, no workers running yet
	defer pool.Close()

	var completed atomic.Int64
	job := func() { completed.Add(1) }

	for i := 0; i < 2; i++ {
		if err := pool.Submit(context.Background(), job); err != nil {
			t.Fatalf("Unexpected submit error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Submit(ctx, job); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	pool.Start()
	pool.Wait()

	if got := completed.Load(); got != 2 {
		t.Errorf("Expected only the 2 queued jobs to run, got %d", got)
	}
}

func TestWorkerPool_CloseIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Close()
	pool.Close() // Should not panic on double close
}

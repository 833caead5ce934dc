package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsRegisteredTask(t *testing.T) {
	s := New(WithWorkers(2), WithResolution(5*time.Millisecond))

	var runs int32
	s.Register("demo", 10*time.Millisecond, func(ctx context.Context) (time.Duration, error) {
		atomic.AddInt32(&runs, 1)
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if atomic.LoadInt32(&runs) < 2 {
		t.Fatalf("expected at least 2 runs in 60ms at 10ms period, got %d", runs)
	}
}

func TestSchedulerAtMostOneInFlight(t *testing.T) {
	s := New(WithWorkers(4), WithResolution(1*time.Millisecond))

	var concurrent int32
	var maxConcurrent int32
	s.Register("slow", 2*time.Millisecond, func(ctx context.Context) (time.Duration, error) {
		n := atomic.AddInt32(&concurrent, 1)
		if n > atomic.LoadInt32(&maxConcurrent) {
			atomic.StoreInt32(&maxConcurrent, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&concurrent, -1)
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if atomic.LoadInt32(&maxConcurrent) > 1 {
		t.Fatalf("expected at most one in-flight run of the same task, observed %d concurrent", maxConcurrent)
	}
}

func TestSchedulerPanicIsolation(t *testing.T) {
	s := New(WithWorkers(1), WithResolution(2*time.Millisecond))

	var okRuns int32
	s.Register("panicky", 3*time.Millisecond, func(ctx context.Context) (time.Duration, error) {
		panic("boom")
	})
	s.Register("healthy", 3*time.Millisecond, func(ctx context.Context) (time.Duration, error) {
		atomic.AddInt32(&okRuns, 1)
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if atomic.LoadInt32(&okRuns) == 0 {
		t.Fatal("expected the healthy task to keep running despite the panicking one")
	}
}

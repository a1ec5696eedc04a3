package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countJob struct {
	executed *atomic.Int64
	err      error
}

type countResult struct {
	err error
}

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.executed.Add(1)
	return &countResult{err: j.err}
}

func TestPoolRunsAllJobs(t *testing.T) {
	var executed atomic.Int64

	pool := NewPool(4)
	pool.Start()

	for i := 0; i < 20; i++ {
		pool.Submit(&countJob{executed: &executed})
	}

	results := pool.Wait()

	if got := executed.Load(); got != 20 {
		t.Errorf("executed = %d, want 20", got)
	}
	if len(results) != 20 {
		t.Errorf("results = %d, want 20", len(results))
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	var executed atomic.Int64
	fail := errors.New("boom")

	pool := NewPool(2)
	pool.Start()

	pool.Submit(&countJob{executed: &executed})
	pool.Submit(&countJob{executed: &executed, err: fail})

	var failures int
	for _, r := range pool.Wait() {
		if r.GetError() != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestPoolZeroWorkersClamped(t *testing.T) {
	var executed atomic.Int64

	pool := NewPool(0)
	pool.Start()
	pool.Submit(&countJob{executed: &executed})

	if results := pool.Wait(); len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestPoolShutdownStopsWorkers(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	// Submitting after shutdown must not block or panic.
	pool.Submit(&countJob{executed: &atomic.Int64{}})
}

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// mockResult implements Result
type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// trackedJob records how many jobs run at once
type trackedJob struct {
	current, peak, executed *int32
	duration                time.Duration
	shouldErr               bool
}

func (j *trackedJob) Execute(ctx context.Context) Result {
	atomic.AddInt32(j.executed, 1)
	n := atomic.AddInt32(j.current, 1)
	defer atomic.AddInt32(j.current, -1)
	for {
		peak := atomic.LoadInt32(j.peak)
		if n <= peak || atomic.CompareAndSwapInt32(j.peak, peak, n) {
			break
		}
	}

	select {
	case <-time.After(j.duration):
	case <-ctx.Done():
		return &mockResult{err: ctx.Err()}
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{}
}

// run submits jobs from a separate goroutine, as ProcessPages does, and
// drains every result
func run(pool *Pool, jobs []Job) []Result {
	go func() {
		defer pool.Close()
		for _, job := range jobs {
			if !pool.Submit(job) {
				return
			}
		}
	}()

	var results []Result
	for r := range pool.Results() {
		results = append(results, r)
	}
	return results
}

func TestNewPool(t *testing.T) {
	for _, n := range []int{0, -1} {
		if p := NewPool(context.Background(), n); p.workers != 1 {
			t.Errorf("expected 1 worker for %d, got %d", n, p.workers)
		}
	}
}

func TestPool_StreamResults(t *testing.T) {
	defer goleak.VerifyNone(t)
	workers := 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	// More jobs than both queues hold
	var current, peak, executed int32
	jobs := make([]Job, 60)
	for i := range jobs {
		jobs[i] = &trackedJob{current: &current, peak: &peak, executed: &executed,
			duration: 2 * time.Millisecond, shouldErr: i%10 == 0}
	}

	results := run(pool, jobs)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	if got := atomic.LoadInt32(&executed); got != int32(len(jobs)) {
		t.Errorf("expected %d executed jobs, got %d", len(jobs), got)
	}
	if got := atomic.LoadInt32(&peak); got > int32(workers) {
		t.Errorf("peak concurrency %d exceeded %d workers", got, workers)
	}

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 6 {
		t.Errorf("expected 6 failed jobs, got %d", failed)
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		if pool.Submit(&trackedJob{}) {
			t.Error("expected Submit to report a canceled pool")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after parent cancel blocked")
	}
	pool.Shutdown()
}

func TestPool_Shutdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var current, peak, executed int32
	pool.Submit(&trackedJob{current: &current, peak: &peak, executed: &executed, duration: time.Minute})

	// Shutdown cancels the running job and closes Results
	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		for range pool.Results() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown timed out")
	}

	if pool.Submit(&trackedJob{}) {
		t.Error("expected Submit to report a closed pool")
	}
}

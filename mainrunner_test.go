package jobsys

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestMainRunner_PostOnlyRunsOnTick verifies MainRunner's main-thread
// affinity: a closure posted from a worker other than main does not run
// until the main worker calls Tick.
// Given: a closure posted via MainRunner.Post from a background worker
// When: some time passes without Tick being called
// Then: the closure has not run; once Tick runs, it has
func TestMainRunner_PostOnlyRunsOnTick(t *testing.T) {
	sched, main := newTestEngine(t, 4)
	runner := NewMainRunner(sched)

	var ran atomic.Bool
	done := make(chan struct{})
	worker := main.TaskMake(func(w *Worker, self *Task) {
		runner.Post(w, func() { ran.Store(true) })
		close(done)
	}, nil)
	main.Submit(worker, QueueNormal)
	<-done

	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Fatal("closure ran before Tick was called")
	}

	if n := runner.Tick(main); n != 1 {
		t.Fatalf("Tick() drained %d tasks, want 1", n)
	}
	if !ran.Load() {
		t.Fatal("closure did not run after Tick")
	}
}

// TestMainRunner_TickDrainsMultiplePosts verifies a single Tick call runs
// every closure queued since the previous Tick.
func TestMainRunner_TickDrainsMultiplePosts(t *testing.T) {
	sched, main := newTestEngine(t, 2)
	runner := NewMainRunner(sched)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		runner.Post(main, func() { count.Add(1) })
	}

	if n := runner.Tick(main); n != 10 {
		t.Fatalf("Tick() drained %d tasks, want 10", n)
	}
	if got := count.Load(); got != 10 {
		t.Fatalf("count = %d, want 10", got)
	}
}

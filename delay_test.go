package jobsys

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestDelayRunner(t *testing.T, numThreads int) (*Scheduler, *Worker, *DelayRunner) {
	t.Helper()
	sched, main := Initialize(Options{
		NumThreads:      numThreads,
		NumUserThreads:  1,
		NormalQueueSize: 4096,
		WorkerQueueSize: 1024,
		MainQueueSize:   256,
	}, DefaultConfig())
	t.Cleanup(func() {
		sched.Shutdown(main)
	})
	return sched, main, NewDelayRunner(sched)
}

// TestDelayRunner_PostRunsAfterDelay verifies a posted entry's closure runs
// only after the requested delay, not immediately.
// Given: an entry delayed by 30ms
// When: it is checked immediately and again after the delay has passed
// Then: it has not run immediately, but has run by the time the delay
// elapses
func TestDelayRunner_PostRunsAfterDelay(t *testing.T) {
	_, _, runner := newTestDelayRunner(t, 2)

	var ran atomic.Bool
	runner.Post(30*time.Millisecond, QueueNormal, func() {
		ran.Store(true)
	})

	time.Sleep(5 * time.Millisecond)
	if ran.Load() {
		t.Fatal("delayed entry ran before its delay elapsed")
	}

	time.Sleep(150 * time.Millisecond)
	if !ran.Load() {
		t.Fatal("delayed entry did not run after its delay elapsed")
	}
}

// TestDelayRunner_CancelBeforeFirePreventsTask verifies Cancel, called
// before the timer fires, stops the entry from ever being created.
func TestDelayRunner_CancelBeforeFirePreventsTask(t *testing.T) {
	_, _, runner := newTestDelayRunner(t, 2)

	var ran atomic.Bool
	d := runner.Post(30*time.Millisecond, QueueNormal, func() {
		ran.Store(true)
	})
	d.Cancel()

	time.Sleep(150 * time.Millisecond)
	if ran.Load() {
		t.Fatal("cancelled entry ran anyway")
	}
}

// TestDelayRunner_PostRepeatingFiresMultipleTimes verifies a repeating
// entry re-arms itself and keeps firing until cancelled.
func TestDelayRunner_PostRepeatingFiresMultipleTimes(t *testing.T) {
	_, _, runner := newTestDelayRunner(t, 2)

	var count atomic.Int32
	d := runner.PostRepeating(10*time.Millisecond, QueueNormal, func() {
		count.Add(1)
	})

	time.Sleep(150 * time.Millisecond)
	d.Cancel()

	got := count.Load()
	if got < 3 {
		t.Fatalf("count = %d after 150ms at a 10ms interval, want at least 3", got)
	}

	time.Sleep(100 * time.Millisecond)
	settled := count.Load()
	if settled != got && settled != got+1 {
		// Allow at most one in-flight firing to complete after Cancel, since
		// Cancel only stops the next re-arm, not a firing already underway.
		t.Fatalf("count kept growing after Cancel: was %d, now %d", got, settled)
	}
}

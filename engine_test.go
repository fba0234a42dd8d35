package jobsys

import "testing"

// TestArchString verifies ArchString reports a non-empty "os/arch" pair.
func TestArchString(t *testing.T) {
	got := ArchString()
	if got == "" || got == "/" {
		t.Fatalf("ArchString() = %q, want a non-empty os/arch pair", got)
	}
}

// TestTaskDataAsEmplaceData verifies the root package's generic wrappers
// forward to core's inline user-data storage correctly.
// Given: a task created on the main worker
// When: EmplaceData stores a value and TaskDataAs reads it back
// Then: the value round-trips
func TestTaskDataAsEmplaceData(t *testing.T) {
	_, main := newTestEngine(t, 2)

	type payload struct{ N int }

	task := main.TaskMake(func(*Worker, *Task) {}, nil)
	EmplaceData(task, payload{N: 7})

	got := TaskDataAs[payload](task)
	if got.N != 7 {
		t.Fatalf("TaskDataAs().N = %d, want 7", got.N)
	}

	main.Submit(task, QueueNormal)
	main.WaitOn(task)
}

// TestWithThreadAffinity_DoesNotPanic verifies the OnWorkerStart hook built
// by WithThreadAffinity can be wired into Config and does not crash worker
// startup on this platform, naming-only (pin=false) or with pinning
// requested (pin=true).
func TestWithThreadAffinity_DoesNotPanic(t *testing.T) {
	for _, pin := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.OnWorkerStart = WithThreadAffinity(pin)

		sched, main := Initialize(Options{NumThreads: 3}, cfg)
		main.SubmitAndWait(main.TaskMake(func(*Worker, *Task) {}, nil), QueueNormal)
		sched.Shutdown(main)
	}
}

// Package jobsys is an in-process work-stealing task scheduler for
// compute-bound, data-parallel workloads in latency-sensitive applications:
// game loops, simulation frames, batch pipelines.
//
// The engine itself lives in the core subpackage: a fixed pool of worker
// goroutines, each with its own lock-free Chase-Lev deque, stealing work
// from one another when idle. Callers create and submit Task values through
// a *core.Worker handle rather than through any ambient "current thread"
// global, since Go has no portable thread-local storage.
//
// This root package builds the convenience layer on top of that engine:
// fork/join helpers (ParallelFor, ParallelInvoke), a SequencedRunner that
// gives posted closures strict FIFO ordering behind a single in-flight
// drain task, a MainRunner for main-thread-affine work, and a DelayRunner
// for timers, backed by its own dedicated scheduler worker.
//
// # Quick start
//
//	sched, main := jobsys.Initialize(jobsys.Options{}, nil)
//	defer sched.Shutdown(main)
//
//	jobsys.ParallelFor(main, data, jobsys.CountSplitter(64), func(chunk []int) {
//		// process chunk
//	})
//
// # Concurrency model
//
// Worker 0 (the goroutine that calls Initialize) never gets an autonomous
// loop of its own; it is driven by the caller, either by blocking in WaitOn
// or SubmitAndWait, or by periodically calling Scheduler.Tick to drain
// main-thread-affine work. Every other owned worker runs its own steal loop
// in a background goroutine from Initialize until Shutdown.
package jobsys

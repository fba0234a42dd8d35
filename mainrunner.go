package jobsys

// MainRunner is the "virtual main thread" convenience: it always submits
// to QueueMain, so posted closures only ever run from a call to
// Scheduler.Tick on the true main worker (id 0) - the same affinity
// guarantee the teacher's SingleThreadTaskRunner gave callers via a
// dedicated goroutine and channel, here backed directly by the engine's
// own main-queue/Tick machinery instead.
type MainRunner struct {
	sched *Scheduler
}

// NewMainRunner wraps sched's shared main queue.
func NewMainRunner(sched *Scheduler) *MainRunner {
	return &MainRunner{sched: sched}
}

// Post creates and submits a task to the main queue from w, to be run the
// next time the main worker calls Tick. w may be any worker, not
// necessarily the main one.
func (r *MainRunner) Post(w *Worker, fn func()) *Task {
	task := w.TaskMake(func(*Worker, *Task) { fn() }, nil)
	return w.Submit(task, QueueMain)
}

// Tick drains the main queue, running up to every task currently queued.
// It may only be called by the main worker. See Scheduler.Tick.
func (r *MainRunner) Tick(main *Worker) int {
	return r.sched.Tick(main, nil)
}

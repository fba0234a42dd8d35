package core

import "time"

// Worker is a single scheduler participant: either one of the scheduler's
// own goroutines running the steal loop, or a caller-owned goroutine that
// registered via Scheduler.SetupUserThread. Every exported operation that
// the original job system exposes as an ambient "current thread" call
// (taskMake, taskSubmit, waitOnTask, ...) is a method on *Worker here
// instead: Go has no portable, safe thread-local storage, so the calling
// goroutine's identity is made explicit by holding the *Worker it was
// handed at setup time, rather than implicit.
type Worker struct {
	id    WorkerID
	sched *Scheduler

	normalQ *spmcDeque
	workerQ *spmcDeque // the main worker has one too, it just never pops or steals from it
	pool    *taskPool

	allocated []uint16 // slots this worker currently has outstanding

	rng        Rand
	lastStolen WorkerID

	history executionHistory
}

// ID returns this worker's id in [0, NumWorkers()).
func (w *Worker) ID() WorkerID { return w.id }

// IsMain reports whether this is worker 0, the goroutine that called
// Initialize. Only the main worker may call Tick.
func (w *Worker) IsMain() bool { return w.id == 0 }

// TaskMake allocates a new, not-yet-submitted Task from this worker's pool.
// If parent is non-nil, parent will not be considered done until this task
// (and any of its own children) complete.
//
// If the pool is full, TaskMake runs a garbage-collection pass, and if that
// does not free a slot, helps drain the system's work queues - exerting
// backpressure instead of growing unbounded - until a slot is available.
func (w *Worker) TaskMake(fn TaskFn, parent *Task) *Task {
	if len(w.allocated) == w.pool.capacity() {
		w.garbageCollect()

		if len(w.allocated) == w.pool.capacity() {
			w.sched.wakeAll()
			for len(w.allocated) == w.pool.capacity() {
				w.tryRunTask()
				w.garbageCollect()
			}
		}
	}

	var parentHandle taskHandle = nullTaskHandle
	if parent != nil {
		parentHandle = parent.handle()
	}

	slot, ok := w.pool.allocate(w.id, fn, parentHandle)
	assert(ok, "worker %d: task pool exhausted after garbage collection", w.id)

	if parent != nil {
		parent.numUnfinished.Add(1)
	}

	w.allocated = append(w.allocated, slot)

	return w.pool.at(slot)
}

// AddContinuation arranges for continuation to be submitted to queue as
// soon as self finishes running (self's own entire subtree, not just
// self). self must not have been submitted yet, and continuation must not
// already be a continuation of some other task.
//
// queue is recorded directly into continuation.queueTag, the same field
// Submit later uses to record the queue a task actually runs from - there
// is no separate "pending queue" field, matching the reference job
// system's TaskAddContinuation, which stores the queue into the
// continuation's own q_type immediately rather than carrying it
// somewhere else until the predecessor finishes.
func (w *Worker) AddContinuation(self, continuation *Task, queue QueueType) {
	assert(self.queueTag == queueUnsubmitted, "a task must not already be submitted before a continuation is added to it")
	assert(continuation.queueTag == queueUnsubmitted, "a continuation must not already be submitted")
	assert(continuation.nextContinuation == nullTaskHandle, "a task must not be added as a continuation twice")

	newHead := continuation.handle()
	continuation.queueTag = queue

	for {
		oldHead := taskHandle(self.firstContinuation.Load())
		continuation.nextContinuation = oldHead
		if self.firstContinuation.CompareAndSwap(uint32(oldHead), uint32(newHead)) {
			return
		}
	}
}

// IncRef adds a reference to task, delaying reclamation of its pool slot
// until a matching DecRef is made. Must be called before the task finishes
// running (i.e. before Submit, if called from outside the task itself).
func (w *Worker) IncRef(task *Task) {
	task.refCount.Add(1)
}

// DecRef releases a reference taken with IncRef. Once the count drops to
// zero and the task has finished running, its slot becomes eligible for
// garbage collection.
func (w *Worker) DecRef(task *Task) {
	old := task.refCount.Add(-1) + 1
	assert(old > 0, "DecRef called more times than IncRef")
}

// Submit places self on the requested queue, making it eligible to run. It
// returns self for chaining. If there is only a single worker in the whole
// system, QueueWorker is coerced to QueueNormal, since no other worker
// could ever run it.
func (w *Worker) Submit(self *Task, queue QueueType) *Task {
	assert(self.queueTag == queueUnsubmitted, "a task cannot be submitted to a queue more than once")

	if w.sched.NumWorkers() == 1 && queue == QueueWorker {
		queue = QueueNormal
	}

	handle := self.handle()
	self.queueTag = queue

	switch queue {
	case QueueNormal:
		w.pushRetrying(w.normalQ, handle)
	case QueueMain:
		for !w.sched.mainQueue.push(handle) {
			w.tryRunTask()
		}
	case QueueWorker:
		w.pushRetrying(w.workerQ, handle)
	default:
		panic("unreachable queue type")
	}

	if queue != QueueMain {
		pending := w.sched.availableJobs.Add(1)
		if pending >= int32(w.sched.NumWorkers()) {
			w.sched.wakeAll()
		} else {
			w.sched.wakeOne()
		}
	}

	return self
}

func (w *Worker) pushRetrying(q *spmcDeque, handle taskHandle) {
	if q.push(handle) == dequeSuccess {
		return
	}
	w.sched.wakeAll()
	for q.push(handle) != dequeSuccess {
		w.tryRunTask()
	}
}

// WaitOn blocks the calling goroutine until task is done, running other
// available tasks in the meantime rather than idling. task must have been
// allocated by this worker and must already be submitted.
func (w *Worker) WaitOn(task *Task) {
	assert(task.queueTag != queueUnsubmitted, "a task must be submitted before WaitOn is called on it")
	assert(task.owningWorker == w.id, "WaitOn may only be called on a task this worker created")

	w.sched.wakeAll()

	for !task.IsDone() {
		w.tryRunTask()
	}
}

// SubmitAndWait submits self to queue and blocks until it (and its
// children) finish.
func (w *Worker) SubmitAndWait(self *Task, queue QueueType) {
	w.Submit(self, queue)
	w.WaitOn(self)
}

// tryRunTask attempts to find and run exactly one task: first from this
// worker's own queues, then by stealing - first from the worker that last
// yielded a successful steal, then from one uniformly random worker. Returns
// false when none of those sources yielded a task; workers other than the
// three it looked at are not searched.
func (w *Worker) tryRunTask() bool {
	isMain := w.IsMain()

	handle := w.popOwn(isMain)

	if handle.isNull() {
		handle = w.trySteal(w.sched.workerAt(w.lastStolen), isMain)
	}

	if handle.isNull() {
		victim := w.sched.randomWorker(w.rng)
		stolen := w.trySteal(victim, isMain)
		if stolen.isNull() {
			return false
		}
		handle = stolen
		w.lastStolen = victim.id
	}

	w.sched.availableJobs.Add(-1)

	task := w.sched.resolve(handle)
	w.runTaskFunction(task)

	return true
}

func (w *Worker) popOwn(isMain bool) taskHandle {
	if h, status := w.normalQ.pop(); status == dequeSuccess {
		return h
	}
	if !isMain {
		if h, status := w.workerQ.pop(); status == dequeSuccess {
			return h
		}
	}
	return nullTaskHandle
}

func (w *Worker) trySteal(other *Worker, isMain bool) taskHandle {
	if other == nil || other == w {
		return nullTaskHandle
	}

	metrics := w.sched.config.Metrics
	record := func(status dequeStatus) {
		switch status {
		case dequeSuccess:
			metrics.RecordStealAttempt(w.id, "success")
		case dequeFailedRace:
			metrics.RecordStealAttempt(w.id, "race")
		default:
			metrics.RecordStealAttempt(w.id, "empty")
		}
	}

	h, status := other.normalQ.steal()
	record(status)
	if status == dequeSuccess {
		return h
	}

	if !isMain && other.workerQ != nil {
		h, status = other.workerQ.steal()
		record(status)
		if status == dequeSuccess {
			return h
		}
	}

	return nullTaskHandle
}

// runTaskFunction runs a single task body, recovering from and reporting
// any panic so one misbehaving task can never take down the whole worker
// loop, then runs the completion protocol regardless of how the task
// function returned.
func (w *Worker) runTaskFunction(task *Task) {
	startedAt := time.Now()
	panicked := false
	name := resolveTaskName(task.fn)
	queueTag := task.queueTag

	defer func() {
		finishedAt := time.Now()
		duration := finishedAt.Sub(startedAt)

		if r := recover(); r != nil {
			panicked = true
			stack := capturePanicStack()
			w.sched.config.Metrics.RecordTaskPanic(w.id, r)
			w.sched.config.PanicHandler.HandlePanic(w.id, r, stack)
		}

		w.sched.config.Metrics.RecordTaskDuration(w.id, duration)
		w.history.Add(TaskExecutionRecord{
			Name:       name,
			WorkerID:   w.id,
			QueueTag:   queueTag,
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Duration:   duration,
			Panicked:   panicked,
		})

		w.onFinish(task)
	}()

	task.fn(w, task)
}

// onFinish implements the completion protocol: decrement this task's
// unfinished-children counter, and if that was the last one, mark the task
// done, submit every continuation (in LIFO order - only ordering guarantee
// is "runs after self", never "runs after sibling continuations"), release
// self's own allocation reference, and then propagate the same decrement
// to the parent.
//
// Iterative rather than recursive up the parent chain and across the
// continuation list: a deep fork/join tree or a long continuation chain
// must not grow the Go call stack per level.
func (w *Worker) onFinish(self *Task) {
	current := self
	for current != nil {
		left := current.numUnfinished.Add(-1)
		if left != 0 {
			break
		}

		var parent *Task
		if !current.parent.isNull() {
			parent = w.sched.resolve(current.parent)
		}

		current.numUnfinished.Store(-1)

		// Each continuation runs on the queue recorded for it at
		// AddContinuation time, not whatever queue self itself was
		// submitted to. That queue lives in the continuation's own
		// queueTag field (AddContinuation stores it there directly), so it
		// is read back out and the field reset to the unsubmitted sentinel
		// before Submit is called - mirroring the reference job system's
		// std::exchange(continuation->q_type, k_InvalidQueueType) - so
		// Submit's own "not already submitted" precondition still holds.
		// Continuations are pushed through w - the worker currently
		// running this completion, which may not be the continuation's
		// own creator - never through the continuation's owning worker's
		// Worker value: a deque's push may only ever be called by the
		// goroutine that owns it, and w is that goroutine right now,
		// exactly as the original TaskSubmit always pushes through
		// worker::GetCurrent() rather than the task's own owning_worker.
		continuationHandle := taskHandle(current.firstContinuation.Load())
		for !continuationHandle.isNull() {
			cont := w.sched.resolve(continuationHandle)
			next := cont.nextContinuation
			continuationQueue := cont.queueTag
			cont.queueTag = queueUnsubmitted
			w.Submit(cont, continuationQueue)
			continuationHandle = next
		}

		current.refCount.Add(-1)

		current = parent
	}
}

// garbageCollect reclaims slots for any of this worker's allocated tasks
// whose reference count has dropped to zero - meaning it has both finished
// running and had every IncRef matched by a DecRef.
func (w *Worker) garbageCollect() {
	write := 0
	reclaimed := 0
	for _, slot := range w.allocated {
		task := w.pool.at(slot)
		if task.refCount.Load() == 0 {
			w.pool.deallocate(slot)
			reclaimed++
			continue
		}
		w.allocated[write] = slot
		write++
	}
	w.allocated = w.allocated[:write]
	if reclaimed > 0 {
		w.sched.config.Metrics.RecordGC(w.id, reclaimed)
	}
}

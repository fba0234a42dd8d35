package jobsys

import (
	"container/heap"
	"sync"
	"time"
)

// delayedEntry is one pending delayed or repeating firing in a DelayRunner's
// heap, ordered by runAt.
type delayedEntry struct {
	runAt     time.Time
	interval  time.Duration // zero for a one-shot Post
	queue     QueueType
	fn        func()
	index     int
	cancelled bool
}

type delayedTaskHeap []*delayedEntry

func (h delayedTaskHeap) Len() int           { return len(h) }
func (h delayedTaskHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h delayedTaskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}

func (h *delayedTaskHeap) Push(x any) {
	e := x.(*delayedEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *delayedTaskHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// DelayedTask is a handle to a single entry posted to a DelayRunner. The
// only operation on it is Cancel.
type DelayedTask struct {
	r     *DelayRunner
	entry *delayedEntry
}

// Cancel stops this entry's next firing. If it has already fired, or is in
// the process of firing, Cancel has no effect on that firing - the core
// scheduler has no concept of task cancellation (see Non-goals), so the
// only thing ever cancelled here is a future creation, never a task already
// submitted.
func (d *DelayedTask) Cancel() {
	d.r.cancel(d.entry)
}

// DelayRunner arms timers and, once they elapse, creates and submits tasks
// on behalf of a single dedicated worker that DelayRunner registers with the
// scheduler itself via SetupUserThread.
//
// A time.AfterFunc or time.Timer callback runs on a goroutine nobody
// provisioned as a scheduler worker, but TaskMake and Submit to QueueNormal
// or QueueWorker are only safe to call from the owning worker's own
// goroutine - core's taskPool and per-worker deques are deliberately
// unsynchronized, touched only by the worker that owns them (see core's
// pool.go, deque.go). Rather than pushing from whatever goroutine a timer
// happens to fire on, a DelayRunner's background loop claims a genuine
// worker slot up front and only ever creates or submits tasks from that
// slot's own goroutine, so every firing is a same-goroutine push exactly
// like any other worker's.
//
// Re-homes the teacher's DelayManager: the same single background
// goroutine holding a min-heap of due entries behind one reusable timer,
// reposting itself via a buffered wake channel when a new soonest entry
// arrives - but handing a due entry to a worker slot it owns outright,
// since this port's per-worker queues are lock-free and single-producer
// rather than the teacher's mutex-guarded ThreadPool queue, which any
// goroutine could push into directly.
//
// The scheduler sched is initialized with must reserve at least one spare
// NumUserThreads slot for each DelayRunner created against it.
type DelayRunner struct {
	w    *Worker
	mu   sync.Mutex
	pq   delayedTaskHeap
	wake chan struct{}
}

// NewDelayRunner claims one of sched's reserved user-thread slots and
// starts its timer loop on a new goroutine. It blocks until that slot has
// joined the scheduler's initialization barrier, the same as any other
// call to Scheduler.SetupUserThread.
func NewDelayRunner(sched *Scheduler) *DelayRunner {
	r := &DelayRunner{wake: make(chan struct{}, 1)}
	ready := make(chan struct{})
	go func() {
		r.w = sched.SetupUserThread()
		close(ready)
		r.loop()
	}()
	<-ready
	return r
}

// Post arranges fn to run, as a task submitted to queue, after delay has
// elapsed.
func (r *DelayRunner) Post(delay time.Duration, queue QueueType, fn func()) *DelayedTask {
	return r.schedule(delay, 0, queue, fn)
}

// PostRepeating arranges fn to run, as a task submitted to queue, every
// interval until cancelled. Each firing re-arms the next one interval after
// submitting the current one; it does not wait for fn to finish running, so
// a fn slower than interval overlaps with later firings.
func (r *DelayRunner) PostRepeating(interval time.Duration, queue QueueType, fn func()) *DelayedTask {
	return r.schedule(interval, interval, queue, fn)
}

func (r *DelayRunner) schedule(delay, interval time.Duration, queue QueueType, fn func()) *DelayedTask {
	e := &delayedEntry{runAt: time.Now().Add(delay), interval: interval, queue: queue, fn: fn}

	r.mu.Lock()
	heap.Push(&r.pq, e)
	isSoonest := e.index == 0
	r.mu.Unlock()

	if isSoonest {
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}

	return &DelayedTask{r: r, entry: e}
}

func (r *DelayRunner) cancel(e *delayedEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.cancelled = true
	if e.index >= 0 {
		heap.Remove(&r.pq, e.index)
	}
}

// loop is the DelayRunner's single background goroutine: it waits for
// either its nearest entry's timer or a wake-up from schedule, pops and
// fires whatever has come due, and otherwise sleeps until the next
// deadline.
func (r *DelayRunner) loop() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		r.mu.Lock()
		var wait time.Duration
		if len(r.pq) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(r.pq[0].runAt)
			if wait <= 0 {
				e := heap.Pop(&r.pq).(*delayedEntry)
				r.mu.Unlock()
				r.fire(e)
				continue
			}
		}
		r.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-r.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// fire creates and submits the entry's task, then re-arms it if it is a
// repeating entry. It runs on r.loop's own goroutine, which is r.w's own
// goroutine (the only one that ever calls TaskMake or Submit on r.w), so
// this is always a same-goroutine push regardless of which queue the
// caller asked for.
func (r *DelayRunner) fire(e *delayedEntry) {
	r.mu.Lock()
	cancelled := e.cancelled
	r.mu.Unlock()
	if cancelled {
		return
	}

	task := r.w.TaskMake(func(*Worker, *Task) { e.fn() }, nil)
	r.w.Submit(task, e.queue)

	if e.interval <= 0 {
		return
	}

	r.mu.Lock()
	if !e.cancelled {
		e.runAt = time.Now().Add(e.interval)
		heap.Push(&r.pq, e)
	}
	r.mu.Unlock()
}

package core

// WorkerID identifies a worker slot: either one of the scheduler's own
// goroutines or a goroutine registered via Scheduler.SetupUserThread.
type WorkerID uint16

// QueueType selects which of a worker's queues a task is submitted to.
type QueueType uint8

const (
	// QueueNormal runs on any worker, including the main one.
	QueueNormal QueueType = iota
	// QueueMain only ever runs from Scheduler.Tick, on worker 0.
	QueueMain
	// QueueWorker never runs on the main worker, unless there is only one
	// worker in the whole system, in which case it is coerced to QueueNormal.
	QueueWorker

	// queueUnsubmitted marks a Task that Submit has not yet touched.
	// Submitting a Task, or adding it as a continuation, requires seeing
	// this value; newTask stores it explicitly on every allocation, since
	// QueueNormal (not queueUnsubmitted) is the zero value.
	queueUnsubmitted QueueType = 0xFF
)

func (q QueueType) String() string {
	switch q {
	case QueueNormal:
		return "normal"
	case QueueMain:
		return "main"
	case QueueWorker:
		return "worker"
	case queueUnsubmitted:
		return "unsubmitted"
	default:
		return "unknown"
	}
}

// TaskFn is the signature a task body must have. The Worker passed in is
// whichever worker ends up actually running this task - the owner, or
// whichever worker stole it - since a task's body has no other way to learn
// which goroutine it is executing on; Go has no thread-local "current
// worker" to fall back on. Use it to fork further children or add
// continuations from inside a running task. The Task pointer is the task
// currently running, letting the function reach its own user-data buffer.
type TaskFn func(*Worker, *Task)

// maxWorkers bounds the total number of owned + user-registered workers.
// A worker id is packed into half of a taskHandle, so this is generous
// relative to any machine this scheduler will run on.
const maxWorkers = 1 << 12

// taskHandle is a (WorkerID, slot index) pair packed into a uint32 so it can
// be stored in an atomic.Uint32 - the deques and the main queue move these,
// never *Task pointers, across goroutines.
type taskHandle uint32

const nullTaskHandle taskHandle = 0xFFFFFFFF

func makeTaskHandle(worker WorkerID, slot uint16) taskHandle {
	return taskHandle(uint32(worker)<<16 | uint32(slot))
}

func (h taskHandle) isNull() bool {
	return h == nullTaskHandle
}

func (h taskHandle) worker() WorkerID {
	return WorkerID(h >> 16)
}

func (h taskHandle) slot() uint16 {
	return uint16(h & 0xFFFF)
}

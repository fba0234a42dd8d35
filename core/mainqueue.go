package core

import "sync"

// lockedQueue is a plain mutex-guarded ring buffer. Unlike the per-worker
// spmcDeque, the main queue is pushed to by any worker but popped only by
// the main thread's Tick, so there is no point paying for a lock-free
// algorithm here - the original job system makes the same call.
type lockedQueue struct {
	mu         sync.Mutex
	data       []uint32
	mask       int
	writeIndex int
	size       int
}

func newLockedQueue(capacity int) *lockedQueue {
	assert(capacity > 0 && capacity&(capacity-1) == 0, "locked queue capacity must be a power of two, got %d", capacity)
	return &lockedQueue{
		data: make([]uint32, capacity),
		mask: capacity - 1,
	}
}

func (q *lockedQueue) push(value taskHandle) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.data) {
		return false
	}

	q.data[q.writeIndex&q.mask] = uint32(value)
	q.writeIndex++
	q.size++
	return true
}

func (q *lockedQueue) pop() (taskHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nullTaskHandle, false
	}

	idx := (q.writeIndex - q.size) & q.mask
	q.size--
	return taskHandle(q.data[idx]), true
}

func (q *lockedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

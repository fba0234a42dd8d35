package core

import "sync/atomic"

// dequeStatus mirrors SPMCDequeStatus from the reference job system: Push,
// Pop and Steal all report whether they raced a concurrent operation versus
// simply finding the queue full or empty, which callers use to decide
// whether to retry immediately or fall back to other work.
type dequeStatus int

const (
	dequeSuccess dequeStatus = iota
	dequeFailedRace
	dequeFailedSize
)

// spmcDeque is a Chase-Lev work-stealing deque: the owning worker pushes and
// pops from the bottom (LIFO, cheap, uncontended), while any other worker
// may steal from the top (FIFO, contended only against other thieves).
//
// Go's sync/atomic operations are all at least as strongly ordered as the
// acquire/release/seq-cst mix the original algorithm spells out by hand, so
// this port uses plain Load/Store/CompareAndSwap throughout rather than
// trying to recreate individual memory_order arguments - the race detector
// sees the same happens-before edges either way, at the cost of a few
// instructions of conservatism on weakly-ordered architectures.
type spmcDeque struct {
	producer atomic.Int64
	consumer atomic.Int64

	data []atomic.Uint32
	mask int64
}

func newSPMCDeque(capacity int) *spmcDeque {
	assert(capacity > 0 && capacity&(capacity-1) == 0, "deque capacity must be a power of two, got %d", capacity)
	d := &spmcDeque{
		data: make([]atomic.Uint32, capacity),
		mask: int64(capacity - 1),
	}
	for i := range d.data {
		d.data[i].Store(uint32(nullTaskHandle))
	}
	return d
}

func (d *spmcDeque) elementAt(index int64) *atomic.Uint32 {
	return &d.data[index&d.mask]
}

// push is only ever called by the owning worker.
func (d *spmcDeque) push(value taskHandle) dequeStatus {
	writeIndex := d.producer.Load()
	readIndex := d.consumer.Load()

	if writeIndex-readIndex > d.mask {
		return dequeFailedSize
	}

	d.elementAt(writeIndex).Store(uint32(value))
	d.producer.Store(writeIndex + 1)

	return dequeSuccess
}

// pop is only ever called by the owning worker.
func (d *spmcDeque) pop() (taskHandle, dequeStatus) {
	producerIndex := d.producer.Load() - 1
	d.producer.Store(producerIndex)

	consumerIndex := d.consumer.Load()

	if consumerIndex <= producerIndex {
		if consumerIndex == producerIndex {
			// Exactly one item left; a concurrent Steal may win the race for it.
			ok := d.consumer.CompareAndSwap(consumerIndex, consumerIndex+1)
			d.producer.Store(producerIndex + 1)
			if ok {
				return taskHandle(d.elementAt(producerIndex).Load()), dequeSuccess
			}
			return nullTaskHandle, dequeFailedRace
		}
		return taskHandle(d.elementAt(producerIndex).Load()), dequeSuccess
	}

	// Queue was empty; restore the canonical empty state.
	d.producer.Store(producerIndex + 1)
	return nullTaskHandle, dequeFailedSize
}

// steal is called by any worker other than the owner.
func (d *spmcDeque) steal() (taskHandle, dequeStatus) {
	readIndex := d.consumer.Load()
	writeIndex := d.producer.Load()

	if readIndex < writeIndex {
		result := taskHandle(d.elementAt(readIndex).Load())
		if d.consumer.CompareAndSwap(readIndex, readIndex+1) {
			return result, dequeSuccess
		}
		return nullTaskHandle, dequeFailedRace
	}

	return nullTaskHandle, dequeFailedSize
}

func (d *spmcDeque) len() int64 {
	n := d.producer.Load() - d.consumer.Load()
	if n < 0 {
		return 0
	}
	return n
}

package jobsys

// Splitter decides whether a chunk of count elements should still be split
// further before being handed to a ParallelFor body. Grounded on the
// original job system's CountSplitter/DataSizeSplitter function objects,
// expressed here as an ordinary predicate rather than a template parameter.
type Splitter func(count int) bool

// CountSplitter splits any chunk larger than maxCount elements.
func CountSplitter(maxCount int) Splitter {
	if maxCount < 1 {
		maxCount = 1
	}
	return func(count int) bool { return count > maxCount }
}

// DataSizeSplitter splits any chunk whose elements, of size elemSize bytes
// each, would together exceed maxBytes.
func DataSizeSplitter(elemSize, maxBytes int) Splitter {
	if elemSize < 1 {
		elemSize = 1
	}
	return func(count int) bool { return count*elemSize > maxBytes }
}

// ParallelFor recursively forks data into halves, governed by splitter,
// until each remaining chunk fails the split test, then runs body on that
// chunk's slice. It blocks the calling worker until every chunk has run.
//
// w must be the worker the caller is currently running on: the one handed
// to it by Initialize or SetupUserThread, or the *Worker argument of an
// enclosing TaskFn.
func ParallelFor[T any](w *Worker, data []T, splitter Splitter, body func(chunk []T)) {
	if len(data) == 0 {
		return
	}

	root := makeParallelForTask(w, data, splitter, body, nil)
	w.SubmitAndWait(root, QueueNormal)
}

func makeParallelForTask[T any](w *Worker, chunk []T, splitter Splitter, body func([]T), parent *Task) *Task {
	return w.TaskMake(func(worker *Worker, self *Task) {
		if !splitter(len(chunk)) {
			body(chunk)
			return
		}

		left := len(chunk) / 2
		right := len(chunk) - left

		if left > 0 {
			leftTask := makeParallelForTask(worker, chunk[:left], splitter, body, self)
			worker.Submit(leftTask, QueueNormal)
		}
		if right > 0 {
			rightTask := makeParallelForTask(worker, chunk[left:], splitter, body, self)
			worker.Submit(rightTask, QueueNormal)
		}
	}, parent)
}

// ParallelInvoke runs every function in fns concurrently, as children of an
// implicit join task, and blocks until all of them have completed.
func ParallelInvoke(w *Worker, fns ...func()) {
	if len(fns) == 0 {
		return
	}

	join := w.TaskMake(func(*Worker, *Task) {}, nil)
	for _, fn := range fns {
		fn := fn
		child := w.TaskMake(func(*Worker, *Task) { fn() }, join)
		w.Submit(child, QueueNormal)
	}
	w.SubmitAndWait(join, QueueNormal)
}

package core

import "runtime"

// PauseProcessor is a thin wrapper over a CPU-level pause/relax hint for
// spin-wait loops. Go's runtime does not expose the architecture PAUSE
// instruction to user code the way the reference job system's
// pause_processor() wraps _mm_pause/yield directly, so this calls
// runtime.Gosched() instead - the same "let the scheduler make progress
// elsewhere" idiom the retrieval pack's own spin/backoff loops reach for
// (e.g. a work-stealing pool's exponential-backoff helper). It exists so
// external code implementing its own spin-retry policy on top of this
// package's API (§6 of the design this package follows) can match the
// scheduler's own choice of pause primitive instead of inventing another.
func PauseProcessor() {
	runtime.Gosched()
}

// YieldTimeSlice hints to the OS scheduler that the calling goroutine's
// current time slice can be given to another goroutine. On the goroutine
// scheduler this is the same operation as PauseProcessor - Go has no
// separate "OS thread yield" distinct from "let another goroutine run" -
// but it is kept as its own named entry point since the reference surface
// distinguishes a short spin-pause from a full yield.
func YieldTimeSlice() {
	runtime.Gosched()
}

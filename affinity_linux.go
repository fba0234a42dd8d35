//go:build linux

package jobsys

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// nameCurrentThread names the calling OS thread "jobsys/worker-N", best
// effort. Must be called after runtime.LockOSThread so the name sticks to
// one OS thread for the worker's whole lifetime rather than whichever
// thread the goroutine happened to be on at the call site.
func nameCurrentThread(id int) {
	name := fmt.Sprintf("jobsys/worker-%d", id)
	if len(name) > 15 {
		name = name[:15] // PR_SET_NAME truncates at 16 bytes including NUL
	}
	nameBytes := append([]byte(name), 0)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&nameBytes[0])), 0, 0, 0)
}

// pinCurrentThread best-effort pins the calling OS thread to CPU
// id % runtime.NumCPU(). Must be called after runtime.LockOSThread.
func pinCurrentThread(id int) {
	n := runtime.NumCPU()
	if n <= 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(id % n)
	_ = unix.SchedSetaffinity(0, &set)
}

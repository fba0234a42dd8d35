//go:build !jobsys_noassert

package core

import "fmt"

const assertionsEnabled = true

// assert panics with msg when condition is false. It compiles out entirely
// under the jobsys_noassert build tag, matching JOB_SYS_ASSERTIONS in the
// library this scheduler is modeled on: checked by default, disabled for a
// release build that wants the branches gone.
func assert(condition bool, msg string, args ...any) {
	if !condition {
		panic(fmt.Sprintf("jobsys: assertion failed: "+msg, args...))
	}
}

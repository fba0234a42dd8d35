package jobsys

import "runtime"

// ArchString reports the "os/arch" pair this binary was built for, e.g.
// "linux/amd64". Mirrors the processor-architecture-name surface the
// original job system exposes for diagnostics and log lines.
func ArchString() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

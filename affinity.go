package jobsys

// WithThreadAffinity returns a core.Config.OnWorkerStart hook that names
// each owned worker's OS thread and pins it to a CPU, using
// platform-specific mechanisms where available (golang.org/x/sys/unix on
// Linux; a no-op everywhere else). Wire it in before calling Initialize:
//
//	cfg := &jobsys.Config{OnWorkerStart: jobsys.WithThreadAffinity(true)}
//	sched, main := jobsys.Initialize(jobsys.Options{}, cfg)
//
// pin selects whether CPU affinity is actually set, beyond just naming the
// thread; pinning is more invasive (it can starve other processes on a
// shared machine) so it defaults to off in most example wiring.
func WithThreadAffinity(pin bool) func(id WorkerID) {
	return func(id WorkerID) {
		nameCurrentThread(int(id))
		if pin {
			pinCurrentThread(int(id))
		}
	}
}

package jobsys

import "github.com/shareef-labs/jobsys/core"

// Re-exported so most callers never need to import core directly; the
// scheduler engine itself stays in core, consumed here only through its
// exported surface.
type (
	Options     = core.Options
	Config      = core.Config
	Scheduler   = core.Scheduler
	Worker      = core.Worker
	Task        = core.Task
	TaskFn      = core.TaskFn
	QueueType   = core.QueueType
	WorkerID    = core.WorkerID
	Rand        = core.Rand
	Metrics     = core.Metrics
	Logger      = core.Logger
	Field       = core.Field

	PanicHandler        = core.PanicHandler
	DefaultPanicHandler = core.DefaultPanicHandler
	NilMetrics          = core.NilMetrics
	DefaultLogger       = core.DefaultLogger
	NoOpLogger          = core.NoOpLogger

	Requirements = core.Requirements

	WorkerStats    = core.WorkerStats
	SchedulerStats = core.SchedulerStats
)

const (
	QueueNormal = core.QueueNormal
	QueueMain   = core.QueueMain
	QueueWorker = core.QueueWorker
)

var (
	Initialize          = core.Initialize
	ComputeRequirements = core.ComputeRequirements
	SystemThreadCount   = core.SystemThreadCount
	DefaultConfig       = core.DefaultConfig
	F                   = core.F
	PauseProcessor      = core.PauseProcessor
	YieldTimeSlice      = core.YieldTimeSlice
)

// TaskDataAs reinterprets a task's reserved inline storage as *T. See
// core.TaskDataAs for the contract.
func TaskDataAs[T any](t *Task) *T {
	return core.TaskDataAs[T](t)
}

// EmplaceData copies value into a task's inline storage. See
// core.EmplaceData for the contract.
func EmplaceData[T any](t *Task, value T) *T {
	return core.EmplaceData[T](t, value)
}

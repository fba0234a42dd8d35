package core

import "time"

// WorkerStats is a point-in-time snapshot of one worker's queues and pool.
type WorkerStats struct {
	ID               WorkerID
	NormalQueueDepth int
	WorkerQueueDepth int
	AllocatedTasks   int
	PoolCapacity     int
	LastTaskName     string
	LastTaskAt       time.Time
}

// SchedulerStats is a point-in-time snapshot of scheduler-wide state.
type SchedulerStats struct {
	NumWorkers    int
	NumOwned      int
	MainQueueSize int
	AvailableJobs int
	Running       bool
}

// Stats snapshots this worker's current queue depths and pool usage. Safe
// to call from any goroutine, including ones other than w itself, though
// the individual fields may be stale the instant they are read.
func (w *Worker) Stats() WorkerStats {
	stats := WorkerStats{
		ID:               w.id,
		NormalQueueDepth: int(w.normalQ.len()),
		WorkerQueueDepth: int(w.workerQ.len()),
		AllocatedTasks:   len(w.allocated),
		PoolCapacity:     w.pool.capacity(),
	}
	if last, ok := w.history.Last(); ok {
		stats.LastTaskName = last.Name
		stats.LastTaskAt = last.FinishedAt
	}

	w.sched.config.Metrics.RecordQueueDepth(w.id, "normal", stats.NormalQueueDepth)
	w.sched.config.Metrics.RecordQueueDepth(w.id, "worker", stats.WorkerQueueDepth)

	return stats
}

// RecentTasks returns up to limit of this worker's most recently completed
// task executions, most recent first. limit <= 0 means "all retained".
func (w *Worker) RecentTasks(limit int) []TaskExecutionRecord {
	return w.history.Recent(limit)
}

// Stats snapshots scheduler-wide state: total worker count, main queue
// depth, and the number of jobs currently believed runnable.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		NumWorkers:    int(s.numWorkers),
		NumOwned:      int(s.numOwned),
		MainQueueSize: s.mainQueue.len(),
		AvailableJobs: int(s.availableJobs.Load()),
		Running:       s.running.Load(),
	}
}

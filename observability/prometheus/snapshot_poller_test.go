package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/shareef-labs/jobsys/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type workerStatsStub struct {
	stats core.WorkerStats
}

func (s workerStatsStub) Stats() core.WorkerStats { return s.stats }

type schedulerStatsStub struct {
	stats core.SchedulerStats
}

func (s schedulerStatsStub) Stats() core.SchedulerStats { return s.stats }

func TestSnapshotPoller_CollectsWorkerAndSchedulerStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddWorker("worker-a", workerStatsStub{stats: core.WorkerStats{
		NormalQueueDepth: 3,
		WorkerQueueDepth: 1,
		AllocatedTasks:   5,
		PoolCapacity:     64,
	}})
	poller.SetScheduler(schedulerStatsStub{stats: core.SchedulerStats{
		NumWorkers:    4,
		NumOwned:      4,
		MainQueueSize: 2,
		AvailableJobs: 1,
		Running:       true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		normalDepth := testutil.ToFloat64(poller.workerNormalDepth.WithLabelValues("worker-a"))
		allocated := testutil.ToFloat64(poller.workerAllocated.WithLabelValues("worker-a"))
		return normalDepth == 3 && allocated == 5
	})

	if got := testutil.ToFloat64(poller.workerJobDepth.WithLabelValues("worker-a")); got != 1 {
		t.Fatalf("worker job queue depth gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.workerCapacity.WithLabelValues("worker-a")); got != 64 {
		t.Fatalf("worker pool capacity gauge = %v, want 64", got)
	}
	if got := testutil.ToFloat64(poller.schedulerWorkers); got != 4 {
		t.Fatalf("scheduler workers gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(poller.schedulerRunning); got != 1 {
		t.Fatalf("scheduler running gauge = %v, want 1", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

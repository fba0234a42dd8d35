package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/shareef-labs/jobsys/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// WorkerSnapshotProvider provides current worker stats snapshots.
type WorkerSnapshotProvider interface {
	Stats() core.WorkerStats
}

// SchedulerSnapshotProvider provides current scheduler-wide stats snapshots.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// SnapshotPoller periodically exports Worker/Scheduler Stats() snapshots
// into Prometheus gauges. Unlike MetricsExporter, which records events as
// they happen on the hot path, this poller samples state that only makes
// sense as a point-in-time reading: queue depths, pool occupancy, whether
// the scheduler is still running.
type SnapshotPoller struct {
	interval time.Duration

	workersMu sync.RWMutex
	workers   map[string]WorkerSnapshotProvider

	schedulerMu sync.RWMutex
	scheduler   SchedulerSnapshotProvider

	workerNormalDepth *prom.GaugeVec
	workerJobDepth    *prom.GaugeVec
	workerAllocated   *prom.GaugeVec
	workerCapacity    *prom.GaugeVec

	schedulerWorkers       prom.Gauge
	schedulerMainQueueSize prom.Gauge
	schedulerAvailableJobs prom.Gauge
	schedulerRunning       prom.Gauge

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	workerNormalDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "worker_normal_queue_depth",
		Help:      "Number of tasks currently queued on a worker's normal queue.",
	}, []string{"worker"})
	workerJobDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "worker_worker_queue_depth",
		Help:      "Number of tasks currently queued on a worker's background queue.",
	}, []string{"worker"})
	workerAllocated := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "worker_pool_allocated",
		Help:      "Number of task-pool slots currently allocated on a worker.",
	}, []string{"worker"})
	workerCapacity := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "worker_pool_capacity",
		Help:      "Total task-pool slot capacity of a worker.",
	}, []string{"worker"})

	schedulerWorkers := prom.NewGauge(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "scheduler_num_workers",
		Help:      "Total number of worker slots in the scheduler.",
	})
	schedulerMainQueueSize := prom.NewGauge(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "scheduler_main_queue_size",
		Help:      "Number of tasks currently queued for the main worker.",
	})
	schedulerAvailableJobs := prom.NewGauge(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "scheduler_available_jobs",
		Help:      "Number of jobs believed runnable somewhere in the system.",
	})
	schedulerRunning := prom.NewGauge(prom.GaugeOpts{
		Namespace: "jobsys",
		Name:      "scheduler_running",
		Help:      "Whether the scheduler is running (1) or shut down (0).",
	})

	var err error
	if workerNormalDepth, err = registerCollector(reg, workerNormalDepth); err != nil {
		return nil, err
	}
	if workerJobDepth, err = registerCollector(reg, workerJobDepth); err != nil {
		return nil, err
	}
	if workerAllocated, err = registerCollector(reg, workerAllocated); err != nil {
		return nil, err
	}
	if workerCapacity, err = registerCollector(reg, workerCapacity); err != nil {
		return nil, err
	}
	if schedulerWorkers, err = registerCollector(reg, schedulerWorkers); err != nil {
		return nil, err
	}
	if schedulerMainQueueSize, err = registerCollector(reg, schedulerMainQueueSize); err != nil {
		return nil, err
	}
	if schedulerAvailableJobs, err = registerCollector(reg, schedulerAvailableJobs); err != nil {
		return nil, err
	}
	if schedulerRunning, err = registerCollector(reg, schedulerRunning); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:               interval,
		workers:                make(map[string]WorkerSnapshotProvider),
		workerNormalDepth:      workerNormalDepth,
		workerJobDepth:         workerJobDepth,
		workerAllocated:        workerAllocated,
		workerCapacity:         workerCapacity,
		schedulerWorkers:       schedulerWorkers,
		schedulerMainQueueSize: schedulerMainQueueSize,
		schedulerAvailableJobs: schedulerAvailableJobs,
		schedulerRunning:       schedulerRunning,
	}, nil
}

// AddWorker adds or replaces a worker snapshot provider by name.
func (p *SnapshotPoller) AddWorker(name string, provider WorkerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "worker")
	p.workersMu.Lock()
	p.workers[name] = provider
	p.workersMu.Unlock()
}

// SetScheduler sets the single scheduler-wide snapshot provider.
func (p *SnapshotPoller) SetScheduler(provider SchedulerSnapshotProvider) {
	if p == nil {
		return
	}
	p.schedulerMu.Lock()
	p.scheduler = provider
	p.schedulerMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.workersMu.RLock()
	for name, provider := range p.workers {
		stats := provider.Stats()
		p.workerNormalDepth.WithLabelValues(name).Set(float64(stats.NormalQueueDepth))
		p.workerJobDepth.WithLabelValues(name).Set(float64(stats.WorkerQueueDepth))
		p.workerAllocated.WithLabelValues(name).Set(float64(stats.AllocatedTasks))
		p.workerCapacity.WithLabelValues(name).Set(float64(stats.PoolCapacity))
	}
	p.workersMu.RUnlock()

	p.schedulerMu.RLock()
	provider := p.scheduler
	p.schedulerMu.RUnlock()

	if provider != nil {
		stats := provider.Stats()
		p.schedulerWorkers.Set(float64(stats.NumWorkers))
		p.schedulerMainQueueSize.Set(float64(stats.MainQueueSize))
		p.schedulerAvailableJobs.Set(float64(stats.AvailableJobs))
		if stats.Running {
			p.schedulerRunning.Set(1)
		} else {
			p.schedulerRunning.Set(0)
		}
	}
}

package core

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Options configures a Scheduler at construction time. All sizes must be
// powers of two, matching the underlying lock-free deques.
type Options struct {
	// NumThreads is the number of scheduler-owned worker goroutines,
	// including the one that calls Initialize. Zero means
	// SystemThreadCount().
	NumThreads int
	// NumUserThreads reserves additional worker slots for goroutines that
	// will later call Scheduler.SetupUserThread, instead of being spawned
	// by the scheduler itself.
	NumUserThreads int

	NormalQueueSize int // per-worker QueueNormal capacity; default 1024
	WorkerQueueSize int // per-worker QueueWorker capacity; default 32
	MainQueueSize   int // shared QueueMain capacity; default 256

	// RandSeed perturbs the per-worker steal-victim PRNG seed. Leave at
	// zero for a fixed, reproducible sequence seeded purely from worker
	// index - useful for tests that want deterministic stealing patterns.
	RandSeed uint64
}

func (o Options) withDefaults() Options {
	if o.NumThreads == 0 {
		o.NumThreads = SystemThreadCount()
	}
	if o.NormalQueueSize == 0 {
		o.NormalQueueSize = 1024
	}
	if o.WorkerQueueSize == 0 {
		o.WorkerQueueSize = 32
	}
	if o.MainQueueSize == 0 {
		o.MainQueueSize = 256
	}
	return o
}

// Requirements reports the resources Initialize will allocate for a given
// Options, without allocating anything. It is vestigial relative to the
// manual-arena-allocator job system this scheduler is modeled on - Go's
// garbage collector makes a caller-supplied memory block unnecessary - but
// is kept as a sizing/introspection surface: callers that want to log or
// budget for a scheduler's footprint can call ComputeRequirements before
// Initialize without committing to anything.
type Requirements struct {
	NumWorkers         int
	TasksPerWorker     int
	TotalTaskSlots     int
	EstimatedFootprint uintptr
}

// ComputeRequirements reports the sizes Initialize(opts, ...) would use.
func ComputeRequirements(opts Options) Requirements {
	opts = opts.withDefaults()
	for _, size := range []int{opts.NormalQueueSize, opts.WorkerQueueSize, opts.MainQueueSize} {
		assert(size > 0 && size&(size-1) == 0, "queue capacity must be a power of two, got %d", size)
	}
	numWorkers := opts.NumThreads + opts.NumUserThreads
	tasksPerWorker := opts.NormalQueueSize + opts.WorkerQueueSize
	total := tasksPerWorker * numWorkers

	const taskSize = uintptr(34 + taskUserDataSize)
	footprint := uintptr(total)*taskSize + uintptr(opts.MainQueueSize)*4 + uintptr(total)*4

	return Requirements{
		NumWorkers:         numWorkers,
		TasksPerWorker:     tasksPerWorker,
		TotalTaskSlots:     total,
		EstimatedFootprint: footprint,
	}
}

// Scheduler owns every worker, the shared main queue, and the sleep/wake
// and initialization-barrier state that coordinates them. There is exactly
// one Scheduler per process that actually uses one; nothing here is a
// global, but nothing stops an embedder from keeping more than one around
// except that each owns its own goroutines and CPU share.
type Scheduler struct {
	workers    []*Worker
	numOwned   WorkerID
	numWorkers WorkerID

	mainQueue     *lockedQueue
	availableJobs atomic.Int32
	running       atomic.Bool

	sleepMu   sync.Mutex
	sleepCond *sync.Cond

	initMu    sync.Mutex
	initCond  *sync.Cond
	initReady atomic.Int32

	numUserSetup atomic.Uint32

	config   *Config
	archName string

	wg sync.WaitGroup
}

// SystemThreadCount reports the number of logical CPUs available, per
// runtime.NumCPU. Safe to call before or after Initialize, from any
// goroutine.
func SystemThreadCount() int {
	n := runtime.NumCPU()
	if n <= 0 {
		return 1
	}
	return n
}

// Initialize brings up the scheduler: it spawns opts.NumThreads-1
// background worker goroutines (the calling goroutine itself becomes
// worker 0, the "main" worker) and reserves opts.NumUserThreads additional
// slots for goroutines that will call SetupUserThread later. It blocks
// until every owned worker goroutine has started, but does not wait for
// any user threads - those register on their own schedule.
func Initialize(opts Options, cfg *Config) (*Scheduler, *Worker) {
	opts = opts.withDefaults()
	cfg = cfg.fillDefaults()

	numOwned := WorkerID(opts.NumThreads)
	numWorkers := WorkerID(opts.NumThreads + opts.NumUserThreads)
	assert(numWorkers > 0, "a scheduler needs at least one worker")
	assert(int(numWorkers) <= maxWorkers, "too many workers requested: %d", numWorkers)

	s := &Scheduler{
		numOwned:   numOwned,
		numWorkers: numWorkers,
		mainQueue:  newLockedQueue(opts.MainQueueSize),
		config:     cfg,
		archName:   runtime.GOARCH,
		workers:    make([]*Worker, numWorkers),
	}
	s.sleepCond = sync.NewCond(&s.sleepMu)
	s.initCond = sync.NewCond(&s.initMu)

	tasksPerWorker := opts.NormalQueueSize + opts.WorkerQueueSize

	for i := WorkerID(0); i < numWorkers; i++ {
		w := &Worker{
			id:      i,
			sched:   s,
			normalQ: newSPMCDeque(opts.NormalQueueSize),
			workerQ: newSPMCDeque(opts.WorkerQueueSize),
			pool:    newTaskPool(tasksPerWorker),
			rng:     newPCGRand(uint64(i)+opts.RandSeed, uint64(i)*2+1+opts.RandSeed),
			history: newExecutionHistory(defaultTaskHistoryCapacity),
		}
		s.workers[i] = w
	}

	// Main thread counts as already ready, matching the reference system.
	s.initReady.Store(1)
	if s.numWorkers == 1 {
		s.running.Store(true)
	}

	for i := numOwned - 1; i > 0; i-- {
		idx := i
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runOwnedWorker(s.workers[idx])
		}()
	}

	for s.initReady.Load() < int32(numOwned) {
		runtime.Gosched()
	}

	cfg.Logger.Info("scheduler initialized",
		F("numWorkers", int(numWorkers)),
		F("numOwned", int(numOwned)),
		F("numUserThreads", opts.NumUserThreads))

	return s, s.workers[0]
}

func (s *Scheduler) runOwnedWorker(w *Worker) {
	runtime.LockOSThread()
	if s.config.OnWorkerStart != nil {
		s.config.OnWorkerStart(w.id)
	}

	s.registerReady()
	s.waitUntilAllReady()

	s.config.Logger.Debug("worker started", F("worker", int(w.id)))

	for s.running.Load() {
		if !w.tryRunTask() {
			w.garbageCollect()
			s.sleep(w.id)
		}
	}

	s.config.Logger.Debug("worker stopped", F("worker", int(w.id)))
}

// SetupUserThread registers the calling goroutine as one of the
// scheduler's reserved user-thread slots. It blocks until every owned
// worker and every other expected user thread has also called either this
// or Initialize.
func (s *Scheduler) SetupUserThread() *Worker {
	id := s.numOwned + WorkerID(s.numUserSetup.Add(1)-1)
	assert(id < s.numWorkers, "too many calls to SetupUserThread")

	w := s.workers[id]
	s.registerReady()
	s.waitUntilAllReady()
	return w
}

// registerReady marks the calling goroutine as ready to run and, once
// every worker slot has registered, flips the scheduler into the running
// state and releases anyone waiting in waitUntilAllReady.
func (s *Scheduler) registerReady() {
	s.initMu.Lock()
	if s.initReady.Add(1) == int32(s.numWorkers) {
		s.running.Store(true)
		s.initCond.Broadcast()
	}
	s.initMu.Unlock()
}

func (s *Scheduler) waitUntilAllReady() {
	s.initMu.Lock()
	for s.initReady.Load() < int32(s.numWorkers) {
		s.initCond.Wait()
	}
	s.initMu.Unlock()
}

func (s *Scheduler) wakeAll() {
	s.sleepMu.Lock()
	s.sleepCond.Broadcast()
	s.sleepMu.Unlock()
}

func (s *Scheduler) wakeOne() {
	s.sleepMu.Lock()
	s.sleepCond.Signal()
	s.sleepMu.Unlock()
}

func (s *Scheduler) sleep(id WorkerID) {
	if !s.running.Load() {
		return
	}

	if s.availableJobs.Load() != 0 {
		return
	}

	s.config.Logger.Debug("worker idle, no steal target found anywhere, going to sleep", F("worker", int(id)))

	s.sleepMu.Lock()
	for s.running.Load() && s.availableJobs.Load() == 0 {
		s.sleepCond.Wait()
	}
	s.sleepMu.Unlock()
}

func (s *Scheduler) workerAt(id WorkerID) *Worker {
	return s.workers[id]
}

func (s *Scheduler) resolve(h taskHandle) *Task {
	return s.workers[h.worker()].pool.at(h.slot())
}

func (s *Scheduler) randomWorker(r Rand) *Worker {
	return s.workers[r.UintN(uint32(s.numWorkers))]
}

// NumWorkers reports the total number of worker slots: owned plus
// user-registered, whether or not every user slot has been claimed yet.
func (s *Scheduler) NumWorkers() WorkerID {
	return s.numWorkers
}

// ProcessorArchitectureName reports the Go arch string (e.g. "amd64",
// "arm64") this scheduler was built for.
func (s *Scheduler) ProcessorArchitectureName() string {
	return s.archName
}

// Tick drains the shared QueueMain queue, running tasks from it, until
// either it empties or shouldContinue returns false. It may only be called
// by the main worker (id 0). Passing a nil shouldContinue drains until
// empty.
func (s *Scheduler) Tick(main *Worker, shouldContinue func() bool) int {
	assert(main.IsMain(), "Tick may only be called by the main worker")

	ran := 0
	for shouldContinue == nil || shouldContinue() {
		handle, ok := s.mainQueue.pop()
		if !ok {
			break
		}
		task := s.resolve(handle)
		main.runTaskFunction(task)
		ran++
	}
	return ran
}

// Shutdown stops every owned worker goroutine and waits for them to
// return. It may only be called by the main worker, and only once.
func (s *Scheduler) Shutdown(main *Worker) {
	assert(main.IsMain(), "Shutdown may only be called by the main worker")

	s.config.Logger.Info("scheduler shutting down", F("numOwned", int(s.numOwned)))

	s.running.Store(false)
	s.wakeAll()
	s.wg.Wait()

	s.config.Logger.Info("scheduler shut down, all owned workers joined")
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("Scheduler{workers=%d, owned=%d}", s.numWorkers, s.numOwned)
}

// Package scheduler queues scans onto a bounded worker pool. Jobs carry a
// priority, can be cancelled while queued or running, and run-fatal failures
// are retried whole with exponential backoff before the record is finally
// failed.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/privalens/privalens/internal/analyzer"
	"github.com/privalens/privalens/internal/logging"
)

// Priority orders queued jobs; higher runs first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// JobState is the scheduler-side view of a scan job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobUnknown JobState = "unknown"
)

// RetryPolicy controls whole-run retries of run-fatal failures. Per-URL
// errors inside a run are never retried.
type RetryPolicy struct {
	// MaxAttempts counts the first run plus retries.
	MaxAttempts int

	// InitialBackoff doubles after every failed attempt, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     10 * time.Minute,
	}
}

// Delay returns the backoff before the given retry attempt (1-based count of
// failures so far).
func (p RetryPolicy) Delay(failures int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Runner is the unit of work the pool executes. *analyzer.Orchestrator
// satisfies it.
type Runner interface {
	Run(ctx context.Context, scanID string) error
	Fail(ctx context.Context, scanID, msg string) error
}

// DefaultWorkers is the reference pool size: two concurrent analysis runs.
const DefaultWorkers = 2

type job struct {
	scanID   string
	priority Priority
	attempt  int
	seq      uint64
	index    int
}

type Scheduler struct {
	runner  Runner
	retry   RetryPolicy
	workers int
	logger  logging.Logger

	// OnComplete and OnFailure are invoked after a job reaches its final
	// outcome. Optional.
	OnComplete func(scanID string)
	OnFailure  func(scanID string, err error)

	mu      sync.Mutex
	cond    *sync.Cond
	queue   jobQueue
	running map[string]context.CancelFunc
	queued  map[string]*job
	seq     uint64
	closed  bool

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func New(runner Runner, workers int, retry RetryPolicy, logger logging.Logger) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	s := &Scheduler{
		runner:  runner,
		retry:   retry,
		workers: workers,
		logger:  logger,
		running: make(map[string]context.CancelFunc),
		queued:  make(map[string]*job),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker pool.
func (s *Scheduler) Start() {
	s.baseCtx, s.stop = context.WithCancel(context.Background())
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop cancels all running jobs, drops the queue and waits for workers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.queued = make(map[string]*job)
	s.cond.Broadcast()
	s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
}

var ErrSchedulerStopped = errors.New("scheduler is stopped")

// Enqueue queues a scan for execution. A scan id can only be queued once at a
// time.
func (s *Scheduler) Enqueue(scanID string, priority Priority) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerStopped
	}
	if _, dup := s.queued[scanID]; dup {
		return nil
	}

	s.seq++
	j := &job{scanID: scanID, priority: priority, attempt: 1, seq: s.seq}
	s.queued[scanID] = j
	heap.Push(&s.queue, j)
	s.cond.Signal()
	return nil
}

// Cancel stops a job. A queued job is removed from the queue; a running job
// gets its context cancelled, which the orchestrator honors between pages.
// Returns false when the scheduler does not know the scan.
func (s *Scheduler) Cancel(scanID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.queued[scanID]; ok {
		heap.Remove(&s.queue, j.index)
		delete(s.queued, scanID)
		return true
	}
	if cancel, ok := s.running[scanID]; ok {
		cancel()
		return true
	}
	return false
}

// State reports whether the scheduler currently holds the scan.
func (s *Scheduler) State(scanID string) JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queued[scanID]; ok {
		return JobQueued
	}
	if _, ok := s.running[scanID]; ok {
		return JobRunning
	}
	return JobUnknown
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		j := s.next()
		if j == nil {
			return
		}
		s.execute(id, j)
	}
}

// next blocks until a job is available or the scheduler stops.
func (s *Scheduler) next() *job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.closed {
			return nil
		}
		if s.queue.Len() > 0 {
			j := heap.Pop(&s.queue).(*job)
			delete(s.queued, j.scanID)
			return j
		}
		s.cond.Wait()
	}
}

func (s *Scheduler) execute(workerID int, j *job) {
	jobCtx, cancel := context.WithCancel(s.baseCtx)
	s.mu.Lock()
	s.running[j.scanID] = cancel
	s.mu.Unlock()

	err := s.runner.Run(jobCtx, j.scanID)

	s.mu.Lock()
	delete(s.running, j.scanID)
	s.mu.Unlock()
	cancel()

	if err == nil {
		if s.OnComplete != nil {
			s.OnComplete(j.scanID)
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		// Cancellation is a terminal outcome, not a failure.
		return
	}

	if j.attempt < s.retry.MaxAttempts && !errors.Is(err, analyzer.ErrDomainBusy) {
		delay := s.retry.Delay(j.attempt)
		s.logger.Warn("scan run failed, scheduling retry",
			logging.Field{Key: "scan_id", Value: j.scanID},
			logging.Field{Key: "worker", Value: workerID},
			logging.Field{Key: "attempt", Value: j.attempt},
			logging.Field{Key: "backoff", Value: delay.String()},
			logging.Field{Key: "error", Value: err.Error()})
		s.requeue(j, delay)
		return
	}

	if failErr := s.runner.Fail(context.Background(), j.scanID, err.Error()); failErr != nil {
		s.logger.Error("failed to finalize scan",
			logging.Field{Key: "scan_id", Value: j.scanID},
			logging.Field{Key: "error", Value: failErr.Error()})
	}
	if s.OnFailure != nil {
		s.OnFailure(j.scanID, err)
	}
}

// requeue re-inserts a failed job after its backoff delay elapses.
func (s *Scheduler) requeue(j *job, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if _, dup := s.queued[j.scanID]; dup {
			return
		}
		s.seq++
		retry := &job{
			scanID:   j.scanID,
			priority: j.priority,
			attempt:  j.attempt + 1,
			seq:      s.seq,
		}
		s.queued[retry.scanID] = retry
		heap.Push(&s.queue, retry)
		s.cond.Signal()
	})
}

package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/privalens/privalens/internal/analyzer"
	"github.com/privalens/privalens/internal/scheduler"
	"github.com/privalens/privalens/internal/testutil"
)

// fakeRunner scripts Run outcomes per scan id and records the order of calls.
type fakeRunner struct {
	mu      sync.Mutex
	runs    []string
	failed  []string
	outcome map[string][]error // popped front to back; empty means success
	block   chan struct{}      // when set, Run waits for close or ctx
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outcome: map[string][]error{}}
}

func (f *fakeRunner) Run(ctx context.Context, scanID string) error {
	f.mu.Lock()
	f.runs = append(f.runs, scanID)
	var err error
	if outcomes := f.outcome[scanID]; len(outcomes) > 0 {
		err = outcomes[0]
		f.outcome[scanID] = outcomes[1:]
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRunner) Fail(ctx context.Context, scanID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, scanID)
	return nil
}

func (f *fakeRunner) runOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

func (f *fakeRunner) failures() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.failed...)
}

func fastRetry(attempts int) scheduler.RetryPolicy {
	return scheduler.RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPriorityOrdering(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})

	s := scheduler.New(runner, 1, fastRetry(1), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	// Occupy the single worker so the rest queue up.
	if err := s.Enqueue("first", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "worker pickup", func() bool { return s.State("first") == scheduler.JobRunning })

	for _, e := range []struct {
		id string
		p  scheduler.Priority
	}{
		{"low", scheduler.PriorityLow},
		{"normal", scheduler.PriorityNormal},
		{"high", scheduler.PriorityHigh},
	} {
		if err := s.Enqueue(e.id, e.p); err != nil {
			t.Fatal(err)
		}
	}

	close(runner.block)
	waitFor(t, "all jobs to run", func() bool { return len(runner.runOrder()) == 4 })

	got := runner.runOrder()
	want := []string{"first", "high", "normal", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("run order = %v, want %v", got, want)
		}
	}
}

func TestOnCompleteCallback(t *testing.T) {
	runner := newFakeRunner()
	s := scheduler.New(runner, 1, fastRetry(1), &testutil.DummyLogger{})

	var mu sync.Mutex
	var completed []string
	s.OnComplete = func(scanID string) {
		mu.Lock()
		completed = append(completed, scanID)
		mu.Unlock()
	}

	s.Start()
	defer s.Stop()

	if err := s.Enqueue("ok", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "completion callback", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(completed) == 1 && completed[0] == "ok"
	})
}

func TestRetryThenFail(t *testing.T) {
	runner := newFakeRunner()
	boom := errors.New("browser crashed")
	runner.outcome["flaky"] = []error{boom, boom, boom}

	s := scheduler.New(runner, 1, fastRetry(3), &testutil.DummyLogger{})

	var mu sync.Mutex
	var failedWith error
	s.OnFailure = func(scanID string, err error) {
		mu.Lock()
		failedWith = err
		mu.Unlock()
	}

	s.Start()
	defer s.Stop()

	if err := s.Enqueue("flaky", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "final failure", func() bool { return len(runner.failures()) == 1 })
	if got := len(runner.runOrder()); got != 3 {
		t.Errorf("run attempts = %d, want 3", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(failedWith, boom) {
		t.Errorf("OnFailure err = %v, want the run error", failedWith)
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.outcome["flaky"] = []error{errors.New("transient")}

	s := scheduler.New(runner, 1, fastRetry(3), &testutil.DummyLogger{})

	var mu sync.Mutex
	done := false
	s.OnComplete = func(string) {
		mu.Lock()
		done = true
		mu.Unlock()
	}

	s.Start()
	defer s.Stop()

	if err := s.Enqueue("flaky", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "retry success", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return done
	})
	if got := len(runner.runOrder()); got != 2 {
		t.Errorf("run attempts = %d, want 2", got)
	}
	if len(runner.failures()) != 0 {
		t.Error("successful retry must not finalize the scan as failed")
	}
}

func TestDomainBusyIsNotRetried(t *testing.T) {
	runner := newFakeRunner()
	runner.outcome["busy"] = []error{analyzer.ErrDomainBusy}

	s := scheduler.New(runner, 1, fastRetry(3), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	if err := s.Enqueue("busy", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "immediate failure", func() bool { return len(runner.failures()) == 1 })
	if got := len(runner.runOrder()); got != 1 {
		t.Errorf("domain contention ran %d times, want 1", got)
	}
}

func TestCancelQueuedJob(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})

	s := scheduler.New(runner, 1, fastRetry(1), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	if err := s.Enqueue("running", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "worker pickup", func() bool { return s.State("running") == scheduler.JobRunning })

	if err := s.Enqueue("waiting", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	if !s.Cancel("waiting") {
		t.Fatal("cancel of a queued job should succeed")
	}
	if s.State("waiting") != scheduler.JobUnknown {
		t.Error("cancelled job still known to the scheduler")
	}

	close(runner.block)
	waitFor(t, "first job to finish", func() bool { return s.State("running") == scheduler.JobUnknown })

	for _, id := range runner.runOrder() {
		if id == "waiting" {
			t.Error("cancelled queued job must never run")
		}
	}
}

func TestCancelRunningJob(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})

	s := scheduler.New(runner, 1, fastRetry(3), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	if err := s.Enqueue("victim", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "worker pickup", func() bool { return s.State("victim") == scheduler.JobRunning })

	if !s.Cancel("victim") {
		t.Fatal("cancel of a running job should succeed")
	}
	waitFor(t, "job teardown", func() bool { return s.State("victim") == scheduler.JobUnknown })

	// Cancellation is terminal; the job is neither retried nor failed.
	time.Sleep(20 * time.Millisecond)
	if got := len(runner.runOrder()); got != 1 {
		t.Errorf("cancelled job ran %d times, want 1", got)
	}
	if len(runner.failures()) != 0 {
		t.Error("cancellation must not finalize the scan as failed")
	}
}

func TestCancelUnknownJob(t *testing.T) {
	s := scheduler.New(newFakeRunner(), 1, fastRetry(1), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	if s.Cancel("ghost") {
		t.Error("cancel of an unknown scan should report false")
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})

	s := scheduler.New(runner, 1, fastRetry(1), &testutil.DummyLogger{})
	s.Start()
	defer s.Stop()

	if err := s.Enqueue("hold", scheduler.PriorityNormal); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "worker pickup", func() bool { return s.State("hold") == scheduler.JobRunning })

	for i := 0; i < 3; i++ {
		if err := s.Enqueue("dup", scheduler.PriorityNormal); err != nil {
			t.Fatal(err)
		}
	}

	close(runner.block)
	waitFor(t, "queue drain", func() bool { return len(runner.runOrder()) >= 2 })
	time.Sleep(20 * time.Millisecond)

	count := 0
	for _, id := range runner.runOrder() {
		if id == "dup" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate enqueues ran %d times, want 1", count)
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	s := scheduler.New(newFakeRunner(), 1, fastRetry(1), &testutil.DummyLogger{})
	s.Start()
	s.Stop()

	if err := s.Enqueue("late", scheduler.PriorityNormal); err != scheduler.ErrSchedulerStopped {
		t.Errorf("err = %v, want ErrSchedulerStopped", err)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := scheduler.RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     10 * time.Minute,
	}
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{6, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := p.Delay(tc.failures); got != tc.want {
			t.Errorf("Delay(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}

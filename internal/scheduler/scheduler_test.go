package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisAdapter "github.com/selivandex/finsights/internal/adapters/redis"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

func setupTest(t *testing.T) {
	t.Helper()
	require.NoError(t, logger.Init("error", ""))
}

// fastTrigger fires a fixed interval after whatever "now" it is given
type fastTrigger struct {
	every time.Duration
}

func (f fastTrigger) Next(now time.Time) time.Time { return now.Add(f.every) }
func (f fastTrigger) Describe() string             { return "test trigger" }

// countingExecutor blocks for holdFor per run and tracks concurrency
type countingExecutor struct {
	holdFor time.Duration
	calls   atomic.Int64
	active  atomic.Int64
	maxSeen atomic.Int64
}

func (e *countingExecutor) Execute(ctx context.Context, job models.JobDefinition) error {
	e.calls.Add(1)
	cur := e.active.Add(1)
	defer e.active.Add(-1)

	for {
		prev := e.maxSeen.Load()
		if cur <= prev || e.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	select {
	case <-time.After(e.holdFor):
	case <-ctx.Done():
	}
	return nil
}

func testJob(every time.Duration) models.JobDefinition {
	return models.JobDefinition{
		Trigger:  fastTrigger{every: every},
		Name:     "test_job",
		Category: "market",
	}
}

func TestOverlappingFireIsSkippedNotQueued(t *testing.T) {
	setupTest(t)

	exec := &countingExecutor{holdFor: 80 * time.Millisecond}
	sched := New(time.UTC, exec, Options{})
	sched.Register(testJob(25 * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	require.NoError(t, sched.Run(ctx))

	// Fires arriving during the 80ms hold are dropped, so the job can
	// never run concurrently with itself, and completed runs re-arm.
	assert.Equal(t, int64(1), exec.maxSeen.Load(), "job ran concurrently with itself")
	assert.GreaterOrEqual(t, exec.calls.Load(), int64(2), "job did not re-arm after completing")
}

func TestIndependentJobsRunConcurrently(t *testing.T) {
	setupTest(t)

	exec := &countingExecutor{holdFor: 100 * time.Millisecond}
	sched := New(time.UTC, exec, Options{})

	jobA := testJob(20 * time.Millisecond)
	jobA.Name = "job_a"
	jobB := testJob(20 * time.Millisecond)
	jobB.Name = "job_b"
	sched.Register(jobA)
	sched.Register(jobB)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, sched.Run(ctx))

	assert.Equal(t, int64(2), exec.maxSeen.Load(), "distinct jobs must not serialize behind each other")
}

// blockingExecutor holds each run until released
type blockingExecutor struct {
	started chan struct{}
	release chan struct{}
}

func (e *blockingExecutor) Execute(ctx context.Context, job models.JobDefinition) error {
	e.started <- struct{}{}
	<-e.release
	return nil
}

func TestCancelDrainsInFlightRun(t *testing.T) {
	setupTest(t)

	exec := &blockingExecutor{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	sched := New(time.UTC, exec, Options{DrainTimeout: 2 * time.Second})
	sched.Register(testJob(10 * time.Millisecond))

	runDone := make(chan struct{})
	go func() {
		_ = sched.Run(context.Background())
		close(runDone)
	}()

	select {
	case <-exec.started:
	case <-time.After(time.Second):
		t.Fatal("job never fired")
	}

	sched.Cancel()

	select {
	case <-runDone:
		t.Fatal("Run returned while an execution was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(exec.release)

	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the in-flight run finished")
	}
}

func TestRegisterAfterStartIsIgnored(t *testing.T) {
	setupTest(t)

	exec := &countingExecutor{holdFor: time.Millisecond}
	sched := New(time.UTC, exec, Options{})
	sched.Register(testJob(10 * time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = sched.Run(ctx)
		close(runDone)
	}()

	time.Sleep(20 * time.Millisecond)
	late := testJob(time.Millisecond)
	late.Name = "late_job"
	sched.Register(late)

	cancel()
	<-runDone

	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.Len(t, sched.jobs, 1)
}

// panicExecutor blows up on the first run, then counts
type panicExecutor struct {
	calls atomic.Int64
}

func (e *panicExecutor) Execute(ctx context.Context, job models.JobDefinition) error {
	if e.calls.Add(1) == 1 {
		panic("boom")
	}
	return nil
}

func TestPanicInExecutionDoesNotStopScheduling(t *testing.T) {
	setupTest(t)

	exec := &panicExecutor{}
	sched := New(time.UTC, exec, Options{})
	sched.Register(testJob(20 * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, sched.Run(ctx))

	assert.GreaterOrEqual(t, exec.calls.Load(), int64(2), "job must keep firing after a panicked run")
}

// denyLockFactory simulates a lock already held by another pod
type denyLockFactory struct{}

func (denyLockFactory) JobLock(jobName string, ttl time.Duration) redisAdapter.JobLock {
	return deniedLock{}
}

type deniedLock struct{}

func (deniedLock) TryAcquire(ctx context.Context) (bool, error) { return false, nil }
func (deniedLock) Release(ctx context.Context) error            { return nil }

func TestLockHeldElsewhereSkipsRun(t *testing.T) {
	setupTest(t)

	exec := &countingExecutor{holdFor: time.Millisecond}
	sched := New(time.UTC, exec, Options{
		LockFactory: denyLockFactory{},
	})
	sched.Register(testJob(20 * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	require.NoError(t, sched.Run(ctx))

	assert.Equal(t, int64(0), exec.calls.Load(), "a fire under a foreign lock must be skipped")
}

func TestDefaultJobsRegistered(t *testing.T) {
	jobs := DefaultJobs()
	require.Len(t, jobs, 5)

	names := make(map[string]models.JobDefinition, len(jobs))
	for _, j := range jobs {
		names[j.Name] = j
	}

	require.Contains(t, names, "pre_market")
	require.Contains(t, names, "post_market")
	assert.Equal(t, models.CategoryMarket, names["pre_market"].Category)
	for _, j := range jobs {
		assert.NotEmpty(t, j.QueryTemplate)
		assert.NotEmpty(t, j.CacheKeys)
	}
}

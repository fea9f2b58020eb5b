// Package scheduler runs the recurring fetch jobs. Jobs fire
// independently on timezone-anchored triggers; an overlapping fire is
// skipped, never queued, and cancellation drains in-flight runs.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisAdapter "github.com/selivandex/finsights/internal/adapters/redis"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

// Executor runs one job fire. Implemented by the fetch pipeline.
type Executor interface {
	Execute(ctx context.Context, job models.JobDefinition) error
}

// Options tunes the scheduler
type Options struct {
	// LockFactory, when set, guards each fire with a cross-pod lock
	LockFactory redisAdapter.LockFactory

	// RunTimeout bounds a single job execution
	RunTimeout time.Duration

	// DrainTimeout bounds the wait for in-flight runs on shutdown
	DrainTimeout time.Duration
}

// Scheduler maintains the set of registered jobs and fires them
type Scheduler struct {
	executor    Executor
	loc         *time.Location
	lockFactory redisAdapter.LockFactory

	runTimeout   time.Duration
	drainTimeout time.Duration

	mu      sync.Mutex
	jobs    []models.JobDefinition
	started bool
	cancel  context.CancelFunc

	// in-flight executions; Run returns only after these drain
	inflight sync.WaitGroup
}

// New creates a scheduler anchored to loc
func New(loc *time.Location, executor Executor, opts Options) *Scheduler {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 5 * time.Minute
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 2 * time.Minute
	}

	return &Scheduler{
		executor:     executor,
		loc:          loc,
		lockFactory:  opts.LockFactory,
		runTimeout:   opts.RunTimeout,
		drainTimeout: opts.DrainTimeout,
	}
}

// Register adds a job definition. Must be called before Run.
func (s *Scheduler) Register(job models.JobDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		logger.Warn("ignoring job registered after scheduler start",
			zap.String("job", job.Name),
		)
		return
	}
	s.jobs = append(s.jobs, job)
}

// Run blocks until ctx is cancelled or Cancel is called, then waits
// for in-flight executions to finish. Next-fire instants are computed
// strictly after "now": runs missed while the process was down are not
// replayed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	fireCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	jobs := s.jobs
	s.mu.Unlock()

	logger.Info("scheduler starting",
		zap.Int("jobs", len(jobs)),
		zap.String("timezone", s.loc.String()),
	)

	var loops sync.WaitGroup
	for _, job := range jobs {
		loops.Add(1)
		go func(job models.JobDefinition) {
			defer loops.Done()
			s.jobLoop(fireCtx, job)
		}(job)
	}

	<-fireCtx.Done()
	loops.Wait()

	logger.Info("scheduler stopped issuing fires, draining in-flight runs")

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("scheduler drained")
	case <-time.After(s.drainTimeout):
		logger.Warn("scheduler drain timeout",
			zap.Duration("timeout", s.drainTimeout),
		)
	}

	return nil
}

// Cancel stops issuing new fires. In-flight executions finish.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// jobLoop fires one job until ctx is done. A fire arriving while the
// previous run is still executing is skipped exactly once and logged.
func (s *Scheduler) jobLoop(ctx context.Context, job models.JobDefinition) {
	var running atomic.Bool

	for {
		now := time.Now().In(s.loc)
		next := job.Trigger.Next(now)

		logger.Debug("job scheduled",
			zap.String("job", job.Name),
			zap.Time("next_fire", next),
		)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		execID := uuid.New()

		if !running.CompareAndSwap(false, true) {
			logger.Info("skipping fire, previous run still active",
				zap.String("job", job.Name),
				zap.String("execution_id", execID.String()),
				zap.Time("scheduled_at", next),
			)
			continue
		}

		s.inflight.Add(1)
		go func(scheduledAt time.Time) {
			defer s.inflight.Done()
			defer running.Store(false)
			s.execute(job, execID, scheduledAt)
		}(next)
	}
}

// execute runs one fire. Executions use their own context so that
// Cancel never aborts a run mid-persist; failures stop at this
// boundary and never affect other jobs' scheduling.
func (s *Scheduler) execute(job models.JobDefinition, execID uuid.UUID, scheduledAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job execution panicked",
				zap.String("job", job.Name),
				zap.String("execution_id", execID.String()),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if s.lockFactory != nil {
		lock := s.lockFactory.JobLock(job.Name, s.runTimeout)
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			logger.Error("job lock error",
				zap.String("job", job.Name),
				zap.Error(err),
			)
			return
		}
		if !acquired {
			logger.Info("skipping fire, job locked by another pod",
				zap.String("job", job.Name),
				zap.String("execution_id", execID.String()),
			)
			return
		}
		defer lock.Release(ctx)
	}

	startTime := time.Now()

	logger.Info("job firing",
		zap.String("job", job.Name),
		zap.String("execution_id", execID.String()),
		zap.Time("scheduled_at", scheduledAt),
	)

	if err := s.executor.Execute(ctx, job); err != nil {
		logger.Error("job execution failed",
			zap.String("job", job.Name),
			zap.String("execution_id", execID.String()),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return
	}

	logger.Info("job execution completed",
		zap.String("job", job.Name),
		zap.String("execution_id", execID.String()),
		zap.Duration("duration", time.Since(startTime)),
	)
}

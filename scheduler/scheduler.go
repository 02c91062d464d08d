package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cine-catalog/logging"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single scheduled or manual run.
const jobTimeout = 30 * time.Minute

// Job represents a scheduled job
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *cron.Cron
	jobs      map[string]Job
	isRunning bool
	logger    zerolog.Logger

	// ctx is the parent of every run; Stop cancels it.
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	manual  sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	logger := logging.WithComponent("scheduler")
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs:   make(map[string]Job),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler with a cron specification
func (s *Scheduler) AddJob(spec string, job Job) error {
	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		s.runJob(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = job
	return nil
}

// AddIntervalJob runs job every interval, starting one interval after Start.
func (s *Scheduler) AddIntervalJob(interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, job.Name())
	}
	return s.AddJob("@every "+interval.String(), job)
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	name := job.Name()
	s.logger.Info().Str("event", "job.start").Str("job", name).Msg("starting scheduled job")
	startTime := time.Now()

	err := job.Run(ctx)
	switch {
	case errors.Is(err, ErrRefreshInProgress):
		s.logger.Info().Str("event", "job.skipped").Str("job", name).Msg("previous run still in progress")
	case err != nil:
		s.logger.Error().Err(err).Str("event", "job.error").Str("job", name).Msg("job failed")
	default:
		s.logger.Info().
			Str("event", "job.done").
			Str("job", name).
			Dur("duration", time.Since(startTime)).
			Msg("job completed")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.Info().Str("event", "scheduler.start").Msg("scheduler started")
}

// Stop cancels running jobs and waits for them, scheduled and manual, to
// return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	defer s.manual.Wait()
	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.Info().Str("event", "scheduler.stop").Msg("scheduler stopped")
}

// RunJobNow runs a job immediately outside of schedule and waits for it.
// Stop cancels the run and waits for it to return.
func (s *Scheduler) RunJobNow(name string) error {
	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("scheduler stopped, job %s not run", name)
	}
	s.manual.Add(1)
	s.mu.Unlock()
	defer s.manual.Done()

	s.logger.Info().Str("event", "job.manual").Str("job", name).Msg("manually running job")
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	return job.Run(ctx)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

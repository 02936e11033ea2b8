// Package scheduler runs the periodic engine jobs (token maintenance,
// repricing, history archiving) on cron specs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// Job is one named periodic task.
type Job struct {
	Name string
	Spec string // cron spec, e.g. "*/5 * * * *" or "@every 1m"
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron. A job still running when its next tick fires
// is skipped.
type Scheduler struct {
	cron       *cron.Cron
	jobs       []Job
	runOnStart bool
	logger     *slog.Logger
}

// New creates a Scheduler. With runOnStart every job also runs once as soon
// as Run starts.
func New(runOnStart bool, logger *slog.Logger) *Scheduler {
	logger = logger.With(slog.String("component", "scheduler"))
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Add registers a job. Invalid specs are rejected here rather than at start.
func (s *Scheduler) Add(job Job) error {
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return fmt.Errorf("scheduler: job %s: invalid spec %q: %w", job.Name, job.Spec, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Run starts the cron loop and blocks until ctx is cancelled. In-flight jobs
// are waited for before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Spec, func() { s.runJob(ctx, job) }); err != nil {
			return fmt.Errorf("scheduler: add %s: %w", job.Name, err)
		}
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", slog.Any("jobs", s.Jobs()))

	if s.runOnStart {
		go s.RunOnce(ctx)
	}

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce runs every registered job once, in registration order.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "job complete",
			slog.String("job", job.Name),
			slog.Duration("elapsed", elapsed),
		)
	case errors.Is(err, domain.ErrLockHeld):
		s.logger.InfoContext(ctx, "job skipped, lock held elsewhere",
			slog.String("job", job.Name),
		)
	case errors.Is(err, context.Canceled):
	default:
		s.logger.ErrorContext(ctx, "job failed",
			slog.String("job", job.Name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}

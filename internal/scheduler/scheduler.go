// Package scheduler runs the periodic maintenance jobs: the sweep that
// re-queues undelivered client reports and the cleanup of finished jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/worker"
	"github.com/robfig/cron/v3"
)

// UndeliveredLister finds leads whose client report never went out.
// service.LeadService satisfies it.
type UndeliveredLister interface {
	ListUndelivered(ctx context.Context, cutoff time.Time, jobType string, limit int32) ([]domain.Lead, error)
}

// JobCleaner removes finished jobs. repository.Queries satisfies it.
type JobCleaner interface {
	DeleteFinishedJobs(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds scheduler settings.
type Config struct {
	SweepSpec    string        // cron spec of the report sweep, e.g. "@every 5m"
	RetryAfter   time.Duration // Minimum lead age before the sweep picks it up
	SweepLimit   int32         // Leads handled per sweep
	CleanupSpec  string        // cron spec of the job cleanup
	JobRetention time.Duration // Age after which finished jobs are deleted
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		SweepSpec:    "@every 5m",
		RetryAfter:   10 * time.Minute,
		SweepLimit:   50,
		CleanupSpec:  "@daily",
		JobRetention: 7 * 24 * time.Hour,
	}
}

// Scheduler wraps robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	leads  UndeliveredLister
	jobs   JobCleaner
	queue  worker.Queue
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Scheduler. Zero config fields fall back to DefaultConfig.
func New(leads UndeliveredLister, jobs JobCleaner, queue worker.Queue, config Config, logger *slog.Logger) *Scheduler {
	def := DefaultConfig()
	if config.SweepSpec == "" {
		config.SweepSpec = def.SweepSpec
	}
	if config.RetryAfter <= 0 {
		config.RetryAfter = def.RetryAfter
	}
	if config.SweepLimit <= 0 {
		config.SweepLimit = def.SweepLimit
	}
	if config.CleanupSpec == "" {
		config.CleanupSpec = def.CleanupSpec
	}
	if config.JobRetention <= 0 {
		config.JobRetention = def.JobRetention
	}

	logger = logger.With("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
		leads:  leads,
		jobs:   jobs,
		queue:  queue,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop. ctx is handed to every
// run; cancel it after Stop to abort a run in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.config.SweepSpec, func() { s.runSweep(ctx) }); err != nil {
		return fmt.Errorf("schedule report sweep %q: %w", s.config.SweepSpec, err)
	}
	if _, err := s.cron.AddFunc(s.config.CleanupSpec, func() { s.runCleanup(ctx) }); err != nil {
		return fmt.Errorf("schedule job cleanup %q: %w", s.config.CleanupSpec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"sweep_spec", s.config.SweepSpec,
		"cleanup_spec", s.config.CleanupSpec,
	)
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("report sweep failed", "error", err)
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if _, err := s.Cleanup(ctx); err != nil {
		s.logger.Error("job cleanup failed", "error", err)
	}
}

// Sweep queues a client report retry for every lead older than RetryAfter
// that has neither a delivered report nor a pending retry. It returns the
// number of jobs queued.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.RetryAfter)
	leads, err := s.leads.ListUndelivered(ctx, cutoff, worker.JobTypeSendClientReport, s.config.SweepLimit)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, lead := range leads {
		_, err := worker.EnqueueSendClientReport(ctx, s.queue, lead.ID,
			worker.WithDelay(0),
			worker.WithSource(worker.SourceSweep),
		)
		if err != nil {
			s.logger.Error("failed to queue client report", "lead_id", lead.ID, "error", err)
			continue
		}
		queued++
	}

	if queued > 0 {
		s.logger.Info("report sweep queued retries", "count", queued)
	}
	return queued, nil
}

// Cleanup deletes finished jobs older than JobRetention.
func (s *Scheduler) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.jobs.DeleteFinishedJobs(ctx, s.now().Add(-s.config.JobRetention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("finished jobs deleted", "count", n)
	}
	return n, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/repository"
)

// maxErrorMessage bounds the error text stored with a failed job.
const maxErrorMessage = 1000

// Worker polls the jobs table and runs report jobs on a fixed number of
// goroutines. Dequeuing uses FOR UPDATE SKIP LOCKED, so several server
// processes can share one queue.
type Worker struct {
	db       *sql.DB
	queries  *repository.Queries
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Worker. Register handlers, then call Start.
func New(db *sql.DB, queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		db:       db,
		queries:  queries,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a handler for its job type. A later registration for the
// same type replaces the earlier one.
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("Registered job handler", "job_type", jobType)
}

// Start resets jobs left running by a crashed process and launches the
// polling goroutines. They exit when ctx is canceled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	w.logger.Info("Worker started", "concurrency", w.config.Concurrency, "job_types", len(w.handlers))
}

// Stop signals the goroutines and waits up to ShutdownTimeout for running
// jobs. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some jobs may still be running")
	}
}

// Stats returns the number of jobs per status.
func (w *Worker) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := w.queries.CountJobsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	return counts, nil
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		w.logger.Warn("Recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}
	return nil
}

// =============================================================================
// Processing Loop
// =============================================================================

// runWorker wakes every PollInterval and drains the queue before sleeping
// again, so a burst of failed report emails does not wait one tick per job.
func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx, logger)
		}
	}
}

func (w *Worker) drain(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		err := w.processNextJob(ctx, logger)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return
		case err != nil:
			logger.Error("Failed to process job", "error", err)
			// A failing database would otherwise be hammered in a tight loop.
			if !errors.Is(err, errJobFailed) {
				return
			}
		}
	}
}

// errJobFailed marks errors returned by the handler rather than the queue.
var errJobFailed = errors.New("execute job")

// processNextJob claims one job and runs it. It returns sql.ErrNoRows when
// the queue is empty.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	job, err := w.claim(ctx)
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("Processing job")

	start := time.Now()
	if err := w.executeJob(ctx, job); err != nil {
		elapsed := time.Since(start)
		logger.Error("Job failed", "error", err, "duration", elapsed)
		w.markJobFailed(ctx, logger, job, err, elapsed)
		return fmt.Errorf("%w: %w", errJobFailed, err)
	}

	elapsed := time.Since(start)
	metrics.JobCompleted(job.JobType, elapsed)
	logger.Info("Job completed", "duration", elapsed)

	if err := w.queries.UpdateJobCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("update job completed: %w", err)
	}
	return nil
}

// claim dequeues the next job and marks it running in one transaction.
func (w *Worker) claim(ctx context.Context) (repository.Job, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Job{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := w.queries.WithTx(tx)

	job, err := qtx.DequeueJob(ctx)
	if err != nil {
		return repository.Job{}, err
	}
	if err := qtx.UpdateJobStarted(ctx, job.ID); err != nil {
		return repository.Job{}, fmt.Errorf("mark job started: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return repository.Job{}, fmt.Errorf("commit dequeue: %w", err)
	}
	return job, nil
}

// executeJob runs the handler under JobTimeout. A panicking handler fails
// the attempt instead of the process.
func (w *Worker) executeJob(ctx context.Context, job repository.Job) (err error) {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed stores the failure. Permanent errors and exhausted jobs end
// as 'failed'; the rest are rescheduled with backoff by the query.
func (w *Worker) markJobFailed(ctx context.Context, logger *slog.Logger, job repository.Job, jobErr error, elapsed time.Duration) {
	permanent := IsPermanent(jobErr)

	// job.Attempts was read before UpdateJobStarted incremented it
	exhausted := job.Attempts+1 >= job.MaxAttempts

	switch {
	case permanent:
		logger.Warn("Job failed with permanent error, will not retry")
		metrics.JobFailed(job.JobType, elapsed)
	case exhausted:
		logger.Warn("Job exhausted its attempts", "max_attempts", job.MaxAttempts)
		metrics.JobFailed(job.JobType, elapsed)
	default:
		metrics.JobRetried(job.JobType)
	}

	message := jobErr.Error()
	if len(message) > maxErrorMessage {
		message = strings.ToValidUTF8(message[:maxErrorMessage], "")
	}

	// The job context may already be canceled; the status update must still land.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := w.queries.UpdateJobFailed(updateCtx, repository.UpdateJobFailedParams{
		ID:           job.ID,
		ErrorMessage: sql.NullString{String: message, Valid: true},
		Permanent:    permanent,
	})
	if err != nil {
		logger.Error("Failed to mark job as failed", "error", err)
	}
}

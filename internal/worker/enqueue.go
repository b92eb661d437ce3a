package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/DukeRupert/ordoflow/internal/repository"
	"github.com/google/uuid"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeSendClientReport = "send_client_report"
	JobTypeArchiveReport    = "archive_report"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// Enqueue sources, used as a metrics label.
const (
	SourceRequest = "request"
	SourceSweep   = "sweep"
)

// LeadPayload is the payload of every lead-scoped job. The lead_id key is
// also read by the sweep query that looks for pending jobs.
type LeadPayload struct {
	LeadID uuid.UUID `json:"lead_id"`
}

// Queue is the part of the repository that stores jobs.
type Queue interface {
	EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error)
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*enqueueParams)

type enqueueParams struct {
	repository.EnqueueJobParams
	source string
}

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *enqueueParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *enqueueParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *enqueueParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// WithSource labels where the job came from. Defaults to SourceRequest.
func WithSource(source string) EnqueueOption {
	return func(p *enqueueParams) {
		p.source = source
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queue Queue,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := enqueueParams{
		EnqueueJobParams: repository.EnqueueJobParams{
			JobType:     jobType,
			Payload:     payloadJSON,
			Priority:    PriorityNormal,
			MaxAttempts: 5,
			ScheduledAt: time.Now(),
		},
		source: SourceRequest,
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queue.EnqueueJob(ctx, params.EnqueueJobParams)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	metrics.JobEnqueued(jobType, params.source)
	return job, nil
}

// EnqueueSendClientReport enqueues a retry of the client report email.
// This is called when the synchronous delivery failed.
func EnqueueSendClientReport(
	ctx context.Context,
	queue Queue,
	leadID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	opts = append([]EnqueueOption{WithPriority(PriorityHigh), WithDelay(time.Minute)}, opts...)
	return EnqueueJob(ctx, queue, JobTypeSendClientReport, LeadPayload{LeadID: leadID}, opts...)
}

// EnqueueArchiveReport enqueues rendering the lead's PDF into object storage.
func EnqueueArchiveReport(
	ctx context.Context,
	queue Queue,
	leadID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	opts = append([]EnqueueOption{WithPriority(PriorityLow)}, opts...)
	return EnqueueJob(ctx, queue, JobTypeArchiveReport, LeadPayload{LeadID: leadID}, opts...)
}

// DecodeLeadPayload unmarshals a lead payload. A malformed payload is a
// permanent error since retrying cannot fix it.
func DecodeLeadPayload(payload []byte) (LeadPayload, error) {
	var p LeadPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, NewPermanentError(fmt.Errorf("unmarshal payload: %w", err))
	}
	if p.LeadID == uuid.Nil {
		return p, NewPermanentError(fmt.Errorf("payload has no lead_id"))
	}
	return p, nil
}

package worker

import (
	"context"
	"errors"
	"slices"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// JobHandler executes one type of background job.
type JobHandler interface {
	// Type returns the job_type this handler processes.
	Type() string

	// Handle runs the job. payload is the raw JSON stored with the job; lead
	// jobs decode it with DecodeLeadPayload. A PermanentError fails the job
	// without further attempts.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a job failure that retrying cannot fix, such as a
// lead that no longer exists.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the worker does not retry it.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// PermanentOn wraps err as permanent when its domain error code is one of
// codes. Other errors, nil included, are returned unchanged.
//
//	return worker.PermanentOn(fmt.Errorf("archive report: %w", err), domain.ENOTFOUND)
func PermanentOn(err error, codes ...string) error {
	if err == nil || IsPermanent(err) {
		return err
	}
	if slices.Contains(codes, domain.ErrorCode(err)) {
		return NewPermanentError(err)
	}
	return err
}

// IsPermanent reports whether err, or anything it wraps, is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

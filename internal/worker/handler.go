package worker

import (
	"context"
	"errors"
)

// JobHandler processes one job type. The worker routes each dequeued job to
// the handler whose Type matches the row's job_type column.
type JobHandler interface {
	// Type is the job type identifier this handler owns.
	Type() string

	// Handle runs the job. payload is the raw JSON stored with the job row.
	// A plain error schedules a retry (until max attempts); wrap with
	// NewPermanentError to fail the job immediately.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a failure that retrying cannot fix, such as a payload
// referencing a deleted user. The worker fails the job on the spot instead
// of rescheduling it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the worker skips retries for it.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, anywhere in its chain, is permanent.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

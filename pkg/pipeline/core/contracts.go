package core

import "context"

// Source loads the input records for one pipeline run.
type Source[In any] interface {
	Load(ctx context.Context) ([]In, error)
}

// Sink persists the output records produced by one pipeline run.
//
// Implementations must make the stored artifact visible atomically: a
// consumer either sees the complete collection or nothing at all.
type Sink[Out any] interface {
	Store(ctx context.Context, rows []Out) error
}

// Transient is implemented by errors that worker pools may retry with
// backoff. Errors that do not implement it are treated as permanent.
type Transient interface {
	Transient() bool
}

// TransientError marks an arbitrary error as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *TransientError) Transient() bool { return true }

// LimitedTransientError is retryable but caps its own retry budget below the
// worker pool's configured maximum.
type LimitedTransientError struct {
	Err          error
	ExtraRetries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *LimitedTransientError) Transient() bool { return true }

// MaxExtraRetries reports the per-error retry cap.
func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil || e.ExtraRetries < 0 {
		return 0
	}
	return e.ExtraRetries
}

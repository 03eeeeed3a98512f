package gcfs

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error wraps a Firestore failure with classification flags that the
// repositories layer inspects when mapping storage errors.
type Error struct {
	op          string
	err         error
	notFound    bool
	unavailable bool
}

// WrapError classifies err by its gRPC status code. A nil err yields nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	wrapped := &Error{op: op, err: err}
	switch status.Code(err) {
	case codes.NotFound:
		wrapped.notFound = true
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		wrapped.unavailable = true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		wrapped.unavailable = true
	}
	return wrapped
}

func (e *Error) Error() string {
	if e.op == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// IsNotFound reports whether the failure maps to a missing document.
func (e *Error) IsNotFound() bool { return e.notFound }

// IsConflict reports whether the failure maps to a write conflict.
func (e *Error) IsConflict() bool { return false }

// IsUnavailable reports whether the failure is retryable.
func (e *Error) IsUnavailable() bool { return e.unavailable }

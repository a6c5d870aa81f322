package bulk

import "errors"

// Operation-scoped errors surfaced to callers. Per-item failures are never
// surfaced as errors; they are captured as Failed item results.
var (
	// ErrInvalidFilter indicates a malformed filter expression.
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrUserNotFound indicates the subject could not be resolved from email.
	ErrUserNotFound = errors.New("user not found")

	// ErrOperationNotFound indicates a missing operation record.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrInvalidOperation indicates an illegal lifecycle transition, such as
	// cancelling a completed operation.
	ErrInvalidOperation = errors.New("invalid operation state")
)

package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrClassifierUnavailable covers network errors, timeouts, and malformed
	// responses from the external classifier. The service layer converts it to
	// the fail-open verdict; it must never reach a caller.
	ErrClassifierUnavailable = errors.New("semantic classifier unavailable")
	// ErrPersistenceFailure marks audit/report write failures. Evaluate still
	// returns its computed verdict when the audit write fails, so the failure
	// has to stay observable through this sentinel in logs and metrics.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrBanExecution marks a failed directory ban after a ban decision.
	// The decision stands; retry happens through the ban execution queue.
	ErrBanExecution        = errors.New("ban execution failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
)

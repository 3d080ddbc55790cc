// Package errs defines the error taxonomy shared by the curation engine.
// Handlers map these onto HTTP status codes; callers use errors.Is to
// distinguish retryable conflicts from fatal validation failures.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing required input, caught
	// before any persistence occurs.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a lost race: a conditional update found the
	// record in a different state than expected.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState marks a state-mutating operation against a job
	// whose current status is not an eligible source state.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound marks a missing job, episode, task, or other record.
	ErrNotFound = errors.New("not found")

	// ErrArtifactUnavailable marks a storage read or write failure.
	// Fatal for ingesting that artifact, never fatal for an export.
	ErrArtifactUnavailable = errors.New("artifact unavailable")

	// ErrNotificationFailure marks a best-effort delivery failure.
	// Always logged, never propagated as a request failure.
	ErrNotificationFailure = errors.New("notification failure")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

// InvalidStatef wraps ErrInvalidState with a formatted detail message.
func InvalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidState}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

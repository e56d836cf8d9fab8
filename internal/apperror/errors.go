// Package apperror defines the error taxonomy shared by the grading pipeline
// and its callers. Errors are sentinels; wrap them with fmt.Errorf("...: %w")
// and match with errors.Is.
package apperror

import "errors"

var (
	// ErrNotFound means a session, paper or question id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrPaperDeleted means the paper behind an existing session is gone.
	ErrPaperDeleted = errors.New("paper deleted")

	// ErrInvalidState means the session status forbids the operation.
	ErrInvalidState = errors.New("invalid session state")

	// ErrGradingServiceUnavailable means the AI endpoint kept failing after
	// every allowed attempt.
	ErrGradingServiceUnavailable = errors.New("grading service unavailable")

	// ErrMalformedResponse means the AI endpoint answered without the fields
	// the caller needs.
	ErrMalformedResponse = errors.New("malformed grading response")
)

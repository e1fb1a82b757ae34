package exception

import (
	"errors"
	"fmt"
)

// Error kinds used to classify search failures. The kind travels with the
// error so the HTTP layer and the segment views can tell them apart.
const (
	KindSubmissionFailure = "submission_failure"
	KindFetchFailure      = "fetch_failure"
	KindNoResults         = "no_results"
	KindStallTimeout      = "stall_timeout"
	KindInvalidResponse   = "invalid_response"
)

// ApplicationError handles application level errors.
type ApplicationError struct {
	Message    string
	StatusCode int
	Kind       string
	Cause      error
}

// Error interface implementation.
func (e ApplicationError) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

func (e ApplicationError) Unwrap() error {
	if e.Cause == nil {
		return errors.New(e.Message)
	}

	return e.Cause
}

func (e ApplicationError) Is(target error) bool {
	var targetErr ApplicationError

	if !errors.As(target, &targetErr) {
		return false
	}

	return e.Kind == targetErr.Kind &&
		e.Message == targetErr.Message
}

// WithCause returns a copy of the error wrapping cause.
func (e ApplicationError) WithCause(cause error) ApplicationError {
	e.Cause = cause

	return e
}

// ErrorCode returns error code for an application error.
func (e ApplicationError) ErrorCode() int {
	return e.StatusCode
}

// KindOf returns the kind of the first ApplicationError in err's chain.
func KindOf(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return ""
}

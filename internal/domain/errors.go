// Package domain defines core types, ports, and errors for the reporting core.
package domain

import (
	"errors"
	"fmt"
)

// ErrObjectNotExist is wrapped by ObjectStore implementations when the
// requested object is absent, so callers can classify without depending
// on the storage SDK.
var ErrObjectNotExist = errors.New("object does not exist")

// SubmissionError indicates the remote query engine refused or was
// unreachable at submit time. Never retried automatically.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailureError indicates a job reached FAILED or CANCELLED. This is a
// normal negative outcome, not a programming error; the engine-supplied
// reason is preserved verbatim.
type JobFailureError struct {
	JobID  string
	State  JobState
	Reason string
}

func (e *JobFailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("query job %s terminated %s", e.JobID, e.State)
	}
	return fmt.Sprintf("query job %s terminated %s: %s", e.JobID, e.State, e.Reason)
}

// MaterializationError indicates the output object of a succeeded job is
// missing or unparsable. NotFound distinguishes a missing object (remote
// engine inconsistency) from malformed content (corruption class).
type MaterializationError struct {
	Message  string
	NotFound bool
	Err      error
}

func (e *MaterializationError) Error() string { return e.Message }

func (e *MaterializationError) Unwrap() error { return e.Err }

// CredentialError indicates no usable credentials were found in any
// configured source. Fatal for the session, before any remote call.
type CredentialError struct {
	Message string
	Err     error
}

func (e *CredentialError) Error() string { return e.Message }

func (e *CredentialError) Unwrap() error { return e.Err }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrSubmission creates a SubmissionError wrapping the engine error.
func ErrSubmission(err error, format string, args ...interface{}) *SubmissionError {
	return &SubmissionError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrMaterialization creates a MaterializationError for malformed output.
func ErrMaterialization(err error, format string, args ...interface{}) *MaterializationError {
	return &MaterializationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrObjectMissing creates a MaterializationError flagged as not-found.
func ErrObjectMissing(err error, format string, args ...interface{}) *MaterializationError {
	return &MaterializationError{Message: fmt.Sprintf(format, args...), NotFound: true, Err: err}
}

// ErrCredential creates a CredentialError.
func ErrCredential(err error, format string, args ...interface{}) *CredentialError {
	return &CredentialError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

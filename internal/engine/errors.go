package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the engine.
//
// Runtime errors include:
//   - Invalid argument: element count outside the accepted range
//   - Index out of range: a swap or log lookup outside current bounds
//   - Algorithm failure: the code runner returned an error
//   - Not ready: an operation requires an array that was never generated
//   - Quota exceeded: a run recorded more actions than allowed
//
// RuntimeError includes structured fields for diagnostics. When it wraps a
// lower-level error (always the case for ALGORITHM_FAILED), Unwrap returns it
// unchanged so callers can match it with errors.Is and errors.As.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run, when one exists.
	RunID string

	// Details contains additional context.
	Details map[string]string

	// Err is the wrapped cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidArgument indicates a non-positive element count.
	ErrCodeInvalidArgument RuntimeErrorCode = "INVALID_ARGUMENT"

	// ErrCodeIndexOutOfRange indicates a position outside [0, length).
	ErrCodeIndexOutOfRange RuntimeErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeAlgorithmFailed indicates the user algorithm failed while recording.
	ErrCodeAlgorithmFailed RuntimeErrorCode = "ALGORITHM_FAILED"

	// ErrCodeNotReady indicates no array has been generated yet.
	ErrCodeNotReady RuntimeErrorCode = "NOT_READY"

	// ErrCodeQuotaExceeded indicates the run recorded more actions than allowed.
	ErrCodeQuotaExceeded RuntimeErrorCode = "ACTION_QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg = fmt.Sprintf("%s (run=%s)", msg, e.RunID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	for errors.As(err, &re) {
		if re.Code == code {
			return true
		}
		if re.Err == nil {
			return false
		}
		err = re.Err
	}
	return false
}

// IsInvalidArgument returns true if err carries ErrCodeInvalidArgument.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsIndexOutOfRange returns true if err carries ErrCodeIndexOutOfRange,
// including when it is the cause of an algorithm failure.
func IsIndexOutOfRange(err error) bool {
	return hasCode(err, ErrCodeIndexOutOfRange)
}

// IsAlgorithmFailure returns true if err is a failed algorithm run.
func IsAlgorithmFailure(err error) bool {
	return hasCode(err, ErrCodeAlgorithmFailed)
}

// IsNotReady returns true if err carries ErrCodeNotReady.
func IsNotReady(err error) bool {
	return hasCode(err, ErrCodeNotReady)
}

// IsQuotaError returns true if err carries ErrCodeQuotaExceeded.
// Matches both RuntimeError with ErrCodeQuotaExceeded and ActionsExceededError.
func IsQuotaError(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var ae *ActionsExceededError
	return errors.As(err, &ae)
}

// NewInvalidArgumentError creates a RuntimeError for a rejected element count.
func NewInvalidArgumentError(n int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("number of elements must be positive, got %d", n),
		Details: map[string]string{"elements": fmt.Sprintf("%d", n)},
	}
}

// NewIndexError creates a RuntimeError for a position outside [0, length).
func NewIndexError(position, length int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeIndexOutOfRange,
		Message: fmt.Sprintf("position %d outside [0, %d)", position, length),
		Details: map[string]string{
			"position": fmt.Sprintf("%d", position),
			"length":   fmt.Sprintf("%d", length),
		},
	}
}

// NewAlgorithmError wraps a code runner failure.
func NewAlgorithmError(runID string, recorded int, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeAlgorithmFailed,
		Message: "algorithm run failed",
		RunID:   runID,
		Details: map[string]string{"recorded_actions": fmt.Sprintf("%d", recorded)},
		Err:     err,
	}
}

// NewNotReadyError creates a RuntimeError for operations that need an array.
func NewNotReadyError(op string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotReady,
		Message: fmt.Sprintf("%s requires generated elements; call CreateNew first", op),
	}
}

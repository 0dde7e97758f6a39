package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer tracks the number of actions recorded by one run and
// enforces a maximum.
//
// The engine cannot interrupt a user algorithm that never calls back into
// the instrumentation surface, but one that keeps tracing or swapping in an
// endless loop is stopped here instead of growing the log without bound.
type QuotaEnforcer struct {
	maxActions int // Maximum allowed actions for this run
	current    int // Current action count
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
// A limit <= 0 disables enforcement.
func NewQuotaEnforcer(maxActions int) *QuotaEnforcer {
	return &QuotaEnforcer{
		maxActions: maxActions,
		current:    0,
	}
}

// Check increments the action counter and validates against the limit.
//
// Returns ActionsExceededError if the quota is exceeded.
// Called before each action is appended.
func (q *QuotaEnforcer) Check(runID string) error {
	q.current++
	if q.maxActions > 0 && q.current > q.maxActions {
		return &ActionsExceededError{
			RunID:   runID,
			Actions: q.current,
			Limit:   q.maxActions,
		}
	}
	return nil
}

// Reset resets the action counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current action count.
// Used for logging and diagnostics.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxActions returns the maximum actions limit.
func (q *QuotaEnforcer) MaxActions() int {
	return q.maxActions
}

// ActionsExceededError is returned when a run exceeds the max actions quota.
//
// It terminates the run: the runner unwinds the user algorithm and the engine
// restores the pristine array like any other failed run.
type ActionsExceededError struct {
	RunID   string // The run that exceeded the quota
	Actions int    // Number of actions attempted
	Limit   int    // Maximum allowed actions
}

// Error implements the error interface.
func (e *ActionsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max actions quota: %d actions > %d limit",
		e.RunID, e.Actions, e.Limit)
}

// Code returns the runtime error code for this error.
func (e *ActionsExceededError) Code() RuntimeErrorCode {
	return ErrCodeQuotaExceeded
}

// IsActionsExceededError returns true if the error is an ActionsExceededError.
// Uses errors.As to handle wrapped errors.
func IsActionsExceededError(err error) bool {
	var ae *ActionsExceededError
	return errors.As(err, &ae)
}

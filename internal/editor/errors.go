package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned for any operation on a finished session
	ErrSessionClosed = errors.New("edit session is closed")
	// ErrDeleteNotRequested is returned when a delete is confirmed without a prior request
	ErrDeleteNotRequested = errors.New("delete was not requested")
	// ErrNothingToDelete is returned when deleting a task that was never persisted
	ErrNothingToDelete = errors.New("task has not been saved")
)

// ValidationReason identifies which save-time rule a draft broke
type ValidationReason string

const (
	ReasonMissingAnchor  ValidationReason = "missing_anchor"
	ReasonDueBeforeStart ValidationReason = "due_before_start"
	ReasonInvalidRule    ValidationReason = "invalid_rule"
)

// ValidationError is a user-correctable rejection. No I/O happened.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingAnchor:
		return "a recurring task must have either a start or a due instant."
	case ReasonDueBeforeStart:
		return "due instant must be later than start instant."
	case ReasonInvalidRule:
		return "the recurrence rule is not valid."
	default:
		return fmt.Sprintf("invalid task: %s", string(e.Reason))
	}
}

// Stage names the persistence call that failed
type Stage string

const (
	StagePrimary Stage = "primary"
	StageCascade Stage = "cascade"
	StageDelete  Stage = "delete"
)

// PersistenceError wraps a failed store call. The message shown to the user
// does not tell the primary save and the successor save apart.
type PersistenceError struct {
	Stage Stage
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Stage == StageDelete {
		return "could not delete task"
	}
	return "could not save task"
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistenceError checks if an error is a PersistenceError
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/assessment-session-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Assessment specific errors
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrAssessmentWrongKind = errors.New("assessment kind does not support this operation")
	ErrLanguageNotAllowed  = errors.New("language not allowed for this exercise")

	// Schedule specific errors
	ErrScheduleNotFound = errors.New("schedule window not found")

	// Session specific errors
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionNotActive      = errors.New("session is not active")
	ErrSessionAlreadyOpened  = errors.New("session already opened")
	ErrSessionClosed         = errors.New("session closed")
	ErrRetryNotAllowed       = errors.New("session cannot be retried in its current state")
	ErrAnswersFrozen         = errors.New("answers are frozen after submission")
	ErrNoResult              = errors.New("session has no graded quiz result")
	ErrAttemptLimitExceeded  = errors.New("maximum attempts exceeded")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSubmissionNotTerminal = errors.New("submission is still being judged")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// GateError is a failure to determine whether an assessment is accessible.
type GateError struct {
	OwnerType string
	OwnerID   uint
	Err       error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("schedule gate for %s %d: %v", e.OwnerType, e.OwnerID, e.Err)
}

func (e *GateError) Unwrap() error { return e.Err }

// SubmitError is a failure while dispatching a submission. The frozen answers are kept;
// Retryable is false only when resubmitting cannot succeed (attempt limit).
type SubmitError struct {
	Retryable bool
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// PollTimeoutError means the polling budget ran out while the judge still reported a
// non-terminal status. The submission may still complete.
type PollTimeoutError struct {
	SubmissionID string
	Attempts     int
	LastStatus   string
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("submission %s still %s after %d polls", e.SubmissionID, e.LastStatus, e.Attempts)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed) || apperrors.IsValidationError(err)
}

// IsConflict checks if error is a state conflict the caller cannot fix by resending
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionNotActive) ||
		errors.Is(err, ErrSessionAlreadyOpened) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrRetryNotAllowed) ||
		errors.Is(err, ErrAnswersFrozen) ||
		errors.Is(err, ErrNoResult)
}

// IsAttemptLimit checks if error is caused by an exhausted attempt budget
func IsAttemptLimit(err error) bool {
	return errors.Is(err, ErrAttemptLimitExceeded)
}

func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}

func IsPollTimeout(err error) bool {
	var pe *PollTimeoutError
	return errors.As(err, &pe)
}

func IsGateError(err error) bool {
	var ge *GateError
	return errors.As(err, &ge)
}

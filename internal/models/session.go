package models

import "time"

type SessionState string

const (
	SessionInit          SessionState = "INIT"
	SessionCheckingGate  SessionState = "CHECKING_GATE"
	SessionLockedNotOpen SessionState = "LOCKED_NOT_OPEN"
	SessionLockedClosed  SessionState = "LOCKED_CLOSED"
	SessionLockedAttempt SessionState = "LOCKED_ATTEMPTS"
	SessionGateError     SessionState = "GATE_ERROR"
	SessionActive        SessionState = "ACTIVE"
	SessionSubmitting    SessionState = "SUBMITTING"
	SessionGraded        SessionState = "GRADED"
	SessionSubmitError   SessionState = "SUBMIT_ERROR"
)

// IsLocked reports whether the session halted before ACTIVE.
func (s SessionState) IsLocked() bool {
	switch s {
	case SessionLockedNotOpen, SessionLockedClosed, SessionLockedAttempt, SessionGateError:
		return true
	}
	return false
}

// IsTerminal reports whether the session can no longer change state on its own.
func (s SessionState) IsTerminal() bool {
	return s.IsLocked() || s == SessionGraded
}

// CodeDraft is the program a learner is editing in a code-exercise session.
type CodeDraft struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// SessionResult is the terminal output surfaced to onGraded callbacks.
type SessionResult struct {
	Quiz       *GradeResult      `json:"quiz,omitempty"`
	Submission *SubmissionRecord `json:"submission,omitempty"`

	// Pending is set when judging outlived the polling budget; the submission may
	// still complete on the judge.
	Pending      bool   `json:"pending"`
	SubmissionID string `json:"submission_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

// AssessmentSession is a point-in-time snapshot of one timed attempt. It is never persisted.
type AssessmentSession struct {
	SessionID               string                `json:"session_id"`
	DefinitionID            uint                  `json:"definition_id"`
	LearnerID               string                `json:"learner_id"`
	Kind                    AssessmentKind        `json:"kind"`
	State                   SessionState          `json:"state"`
	StartedAt               *time.Time            `json:"started_at,omitempty"`
	Deadline                *time.Time            `json:"deadline,omitempty"`
	RemainingSeconds        int                   `json:"remaining_seconds"`
	TimeLimitSeconds        int                   `json:"time_limit_seconds"`
	AttemptsUsedBeforeStart int                   `json:"attempts_used_before_start"`
	MaxAttempts             int                   `json:"max_attempts"`
	Answers                 AnswerPayload         `json:"answers"`
	Code                    *CodeDraft            `json:"code,omitempty"`
	LockReason              string                `json:"lock_reason,omitempty"`
	LastError               string                `json:"last_error,omitempty"`
	Retryable               bool                  `json:"retryable"`
	Result                  *SessionResult        `json:"result,omitempty"`
	Definition              *AssessmentDefinition `json:"definition,omitempty"`
}

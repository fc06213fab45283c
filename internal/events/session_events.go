package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the session lifecycle events this service emits
type EventType string

const (
	EventAttemptStarted     EventType = "attempt.started"
	EventAttemptSubmitted   EventType = "attempt.submitted"
	EventAttemptGraded      EventType = "attempt.graded"
	EventSessionLocked      EventType = "session.locked"
	EventSubmissionTimedOut EventType = "submission.poll_timeout"
	EventGateDegraded       EventType = "gate.degraded"
)

const (
	eventSource  = "assessment-session-service"
	eventVersion = "1.0"
)

// SessionEvent is the envelope for every published event
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	SessionID        string    `json:"session_id"`
	AssessmentID     uint      `json:"assessment_id"`
	LearnerID        string    `json:"learner_id"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	AttemptsUsed     int       `json:"attempts_used"`
}

type AttemptSubmittedEvent struct {
	SessionID    string    `json:"session_id"`
	AssessmentID uint      `json:"assessment_id"`
	LearnerID    string    `json:"learner_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	AutoSubmit   bool      `json:"auto_submit"`
	SubmissionID string    `json:"submission_id,omitempty"`
}

type AttemptGradedEvent struct {
	SessionID    string    `json:"session_id"`
	AssessmentID uint      `json:"assessment_id"`
	LearnerID    string    `json:"learner_id"`
	GradedAt     time.Time `json:"graded_at"`
	Correct      int       `json:"correct,omitempty"`
	Total        int       `json:"total,omitempty"`
	Status       string    `json:"status,omitempty"`
	Score        int       `json:"score,omitempty"`
	MaxScore     int       `json:"max_score,omitempty"`
}

type SessionLockedEvent struct {
	SessionID    string `json:"session_id"`
	AssessmentID uint   `json:"assessment_id"`
	LearnerID    string `json:"learner_id"`
	State        string `json:"state"`
	Reason       string `json:"reason"`
}

type SubmissionTimedOutEvent struct {
	SubmissionID string `json:"submission_id"`
	Attempts     int    `json:"attempts"`
	LastStatus   string `json:"last_status"`
}

type GateDegradedEvent struct {
	OwnerType string `json:"owner_type"`
	OwnerID   uint   `json:"owner_id"`
	Error     string `json:"error"`
}

func newEvent(t EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        GenerateEventID(),
		Type:      t,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *SessionEvent {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptSubmittedEvent(data AttemptSubmittedEvent) *SessionEvent {
	return newEvent(EventAttemptSubmitted, data)
}

func NewAttemptGradedEvent(data AttemptGradedEvent) *SessionEvent {
	return newEvent(EventAttemptGraded, data)
}

func NewSessionLockedEvent(data SessionLockedEvent) *SessionEvent {
	return newEvent(EventSessionLocked, data)
}

func NewSubmissionTimedOutEvent(data SubmissionTimedOutEvent) *SessionEvent {
	return newEvent(EventSubmissionTimedOut, data)
}

func NewGateDegradedEvent(data GateDegradedEvent) *SessionEvent {
	return newEvent(EventGateDegraded, data)
}

// GenerateEventID returns a fresh random event id
func GenerateEventID() string {
	return uuid.NewString()
}

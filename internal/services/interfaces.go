package services

import (
	"context"

	"github.com/SAP-F-2025/assessment-session-service/internal/judge"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

// ===== COLLABORATOR CONTRACTS =====
// The session engine depends only on these; the server services below implement them
// in-process, and the judge client backs the code path.

// ScheduleSource returns the access window of an owner, or nil when it has none.
type ScheduleSource interface {
	GetSchedule(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error)
}

// DefinitionSource loads assessment definitions.
type DefinitionSource interface {
	GetDefinition(ctx context.Context, id uint) (*models.AssessmentDefinition, error)
}

// AttemptCounter returns the authoritative number of attempts a learner has used.
type AttemptCounter interface {
	AttemptCount(ctx context.Context, assessmentID uint, learnerID string) (int, error)
}

// QuizSubmitter grades and records a quiz submission.
type QuizSubmitter interface {
	SubmitQuiz(ctx context.Context, assessmentID uint, learnerID string, answers models.AnswerPayload) (*models.GradeResult, error)
}

// CodeSubmitter forwards a program to the judge and returns the submission id.
type CodeSubmitter interface {
	SubmitCode(ctx context.Context, exerciseID uint, learnerID, code, language string) (string, error)
}

// SubmissionStatusSource reports the judge status of a submission.
type SubmissionStatusSource interface {
	SubmissionStatus(ctx context.Context, submissionID string) (*models.SubmissionRecord, error)
}

// JudgeClient is the subset of the judge HTTP client used by CodeSubmissionService.
type JudgeClient interface {
	Submit(ctx context.Context, req judge.SubmitRequest) (string, error)
	Status(ctx context.Context, submissionID string) (*models.SubmissionRecord, error)
}

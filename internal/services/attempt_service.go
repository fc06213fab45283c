package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
)

// AttemptService counts attempts from the records that consume them: graded quiz attempts
// for quizzes and judge submissions for code exercises.
type AttemptService struct {
	definitions DefinitionSource
	quizRepo    repositories.QuizAttemptRepository
	codeRepo    repositories.CodeSubmissionRepository
}

func NewAttemptService(definitions DefinitionSource, quizRepo repositories.QuizAttemptRepository, codeRepo repositories.CodeSubmissionRepository) *AttemptService {
	return &AttemptService{
		definitions: definitions,
		quizRepo:    quizRepo,
		codeRepo:    codeRepo,
	}
}

func (s *AttemptService) AttemptCount(ctx context.Context, assessmentID uint, learnerID string) (int, error) {
	def, err := s.definitions.GetDefinition(ctx, assessmentID)
	if err != nil {
		return 0, err
	}

	owner := repositories.AttemptOwner{AssessmentID: assessmentID, LearnerID: learnerID}
	switch def.Kind {
	case models.KindQuiz:
		return s.quizRepo.CountByOwner(ctx, nil, owner)
	case models.KindCode:
		return s.codeRepo.CountByOwner(ctx, nil, owner)
	default:
		return 0, fmt.Errorf("unsupported assessment kind %q", def.Kind)
	}
}

// ListQuizAttempts returns a learner's graded attempts, newest first.
func (s *AttemptService) ListQuizAttempts(ctx context.Context, assessmentID uint, learnerID string) ([]*models.QuizAttempt, error) {
	return s.quizRepo.ListByOwner(ctx, nil, repositories.AttemptOwner{AssessmentID: assessmentID, LearnerID: learnerID})
}

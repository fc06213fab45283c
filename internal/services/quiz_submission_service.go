package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"gorm.io/datatypes"
)

// QuizSubmissionService grades quiz answers on the server and records the attempt.
type QuizSubmissionService struct {
	definitions DefinitionSource
	engine      *GradingEngine
	repo        repositories.QuizAttemptRepository
	logger      *ServiceLogger
	now         func() time.Time
}

func NewQuizSubmissionService(definitions DefinitionSource, engine *GradingEngine, repo repositories.QuizAttemptRepository, logger *slog.Logger) *QuizSubmissionService {
	return &QuizSubmissionService{
		definitions: definitions,
		engine:      engine,
		repo:        repo,
		logger:      NewServiceLogger(logger, LogConfig{Service: "assessment-session", Component: "quiz_submissions"}),
		now:         time.Now,
	}
}

// SubmitQuiz grades answers against the stored answer key and inserts the attempt. The
// attempt limit is enforced inside the insert transaction.
func (s *QuizSubmissionService) SubmitQuiz(ctx context.Context, assessmentID uint, learnerID string, answers models.AnswerPayload) (result *models.GradeResult, err error) {
	op := s.logger.WithOperation(ctx, "submit_quiz", learnerID)
	defer func() { op.LogResult(assessmentID, "quiz", err) }()

	def, err := s.definitions.GetDefinition(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if def.Kind != models.KindQuiz {
		return nil, ErrAssessmentWrongKind
	}

	result, err = s.engine.Grade(def.Questions, answers)
	if err != nil {
		return nil, err
	}

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	resultsJSON, err := json.Marshal(result.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	attempt := &models.QuizAttempt{
		AssessmentID: assessmentID,
		LearnerID:    learnerID,
		Correct:      result.Correct,
		Total:        result.Total,
		Answers:      datatypes.JSON(answersJSON),
		Results:      datatypes.JSON(resultsJSON),
		SubmittedAt:  s.now(),
	}

	err = s.repo.CreateWithinLimit(ctx, attempt, repositories.LimitedCreate{
		Owner:       repositories.AttemptOwner{AssessmentID: assessmentID, LearnerID: learnerID},
		MaxAttempts: def.MaxAttempts,
	})
	if errors.Is(err, repositories.ErrAttemptLimitReached) {
		return nil, ErrAttemptLimitExceeded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record quiz attempt: %w", err)
	}
	return result, nil
}

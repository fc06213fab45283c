package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/judge"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
)

// CodeSubmissionService forwards programs to the judge and mirrors their outcome locally.
type CodeSubmissionService struct {
	definitions DefinitionSource
	judge       JudgeClient
	repo        repositories.CodeSubmissionRepository
	cache       cache.CacheService
	cacheTTL    time.Duration
	logger      *ServiceLogger
}

func NewCodeSubmissionService(definitions DefinitionSource, judge JudgeClient, repo repositories.CodeSubmissionRepository, cache cache.CacheService, cacheTTL time.Duration, logger *slog.Logger) *CodeSubmissionService {
	return &CodeSubmissionService{
		definitions: definitions,
		judge:       judge,
		repo:        repo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      NewServiceLogger(logger, LogConfig{Service: "assessment-session", Component: "code_submissions"}),
	}
}

// SubmitCode sends code to the judge and returns the judge's submission id. The local row
// is inserted in the same transaction as the attempt-limit check, so a rejected or failed
// judge call does not consume an attempt.
func (s *CodeSubmissionService) SubmitCode(ctx context.Context, exerciseID uint, learnerID, code, language string) (submissionID string, err error) {
	op := s.logger.WithOperation(ctx, "submit_code", learnerID)
	defer func() { op.LogResult(exerciseID, "code_exercise", err) }()

	def, err := s.definitions.GetDefinition(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if def.Kind != models.KindCode {
		return "", ErrAssessmentWrongKind
	}

	var errs ValidationErrors
	if strings.TrimSpace(code) == "" {
		errs = errs.Add("code", "must not be empty", nil)
	}
	if language == "" {
		errs = errs.Add("language", "is required", nil)
	}
	if err = errs.OrNil(); err != nil {
		return "", err
	}
	if !def.AllowsLanguage(language) {
		return "", ErrLanguageNotAllowed
	}

	submission := &models.CodeSubmission{
		AssessmentID: exerciseID,
		LearnerID:    learnerID,
		Language:     language,
		Code:         code,
		Status:       models.SubmissionPending,
	}

	err = s.repo.CreateWithinLimit(ctx, submission, repositories.LimitedCreate{
		Owner:       repositories.AttemptOwner{AssessmentID: exerciseID, LearnerID: learnerID},
		MaxAttempts: def.MaxAttempts,
		BeforeCreate: func() error {
			id, err := s.judge.Submit(ctx, judge.SubmitRequest{
				ExerciseID: exerciseID,
				LearnerID:  learnerID,
				Code:       code,
				Language:   language,
				TestCases:  def.TestCases,
			})
			if err != nil {
				return err
			}
			submission.JudgeID = id
			return nil
		},
	})
	if errors.Is(err, repositories.ErrAttemptLimitReached) {
		return "", ErrAttemptLimitExceeded
	}
	if err != nil {
		return "", fmt.Errorf("failed to submit code: %w", err)
	}
	return submission.JudgeID, nil
}

// LearnerSubmissionStatus is SubmissionStatus scoped to the learner who made the
// submission; other callers get ErrSubmissionNotFound.
func (s *CodeSubmissionService) LearnerSubmissionStatus(ctx context.Context, submissionID, learnerID string) (*models.SubmissionRecord, error) {
	submission, err := s.repo.GetByJudgeID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission.LearnerID != learnerID {
		return nil, ErrSubmissionNotFound
	}
	return s.SubmissionStatus(ctx, submissionID)
}

// SubmissionStatus returns the judge's current view of a submission. Terminal records never
// change, so they are cached and copied onto the local row.
func (s *CodeSubmissionService) SubmissionStatus(ctx context.Context, submissionID string) (*models.SubmissionRecord, error) {
	var cached models.SubmissionRecord
	if s.cache != nil {
		if err := s.cache.Get(ctx, submissionID, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Logger().WarnContext(ctx, "Submission cache read failed", "submission_id", submissionID, "error", err)
		}
	}

	record, err := s.judge.Status(ctx, submissionID)
	if err != nil {
		if errors.Is(err, judge.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to fetch submission status: %w", err)
	}
	if record.ID == "" {
		record.ID = submissionID
	}

	if !record.Status.IsTerminal() {
		return record, nil
	}

	if err := s.repo.UpdateResult(ctx, nil, submissionID, record); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to mirror submission result", "submission_id", submissionID, "error", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, submissionID, record, s.cacheTTL); err != nil {
			s.logger.Logger().WarnContext(ctx, "Submission cache write failed", "submission_id", submissionID, "error", err)
		}
	}
	return record, nil
}

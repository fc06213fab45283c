package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizAttemptPostgreSQL struct {
	helpers *SharedHelpers
}

func NewQuizAttemptPostgreSQL(db *gorm.DB) repositories.QuizAttemptRepository {
	return &QuizAttemptPostgreSQL{
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizAttemptPostgreSQL) CreateWithinLimit(ctx context.Context, attempt *models.QuizAttempt, limit repositories.LimitedCreate) error {
	return q.helpers.createWithinLimit(ctx, &models.QuizAttempt{}, attempt, limit)
}

func (q *QuizAttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := q.helpers.getDB(tx).WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (q *QuizAttemptPostgreSQL) ListByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := q.helpers.getDB(tx).WithContext(ctx).
		Where("assessment_id = ? AND learner_id = ?", owner.AssessmentID, owner.LearnerID).
		Order("submitted_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	return attempts, nil
}

func (q *QuizAttemptPostgreSQL) CountByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) (int, error) {
	return q.helpers.countByOwner(ctx, tx, &models.QuizAttempt{}, owner)
}

type CodeSubmissionPostgreSQL struct {
	helpers *SharedHelpers
}

func NewCodeSubmissionPostgreSQL(db *gorm.DB) repositories.CodeSubmissionRepository {
	return &CodeSubmissionPostgreSQL{
		helpers: NewSharedHelpers(db),
	}
}

func (c *CodeSubmissionPostgreSQL) CreateWithinLimit(ctx context.Context, submission *models.CodeSubmission, limit repositories.LimitedCreate) error {
	return c.helpers.createWithinLimit(ctx, &models.CodeSubmission{}, submission, limit)
}

func (c *CodeSubmissionPostgreSQL) GetByJudgeID(ctx context.Context, tx *gorm.DB, judgeID string) (*models.CodeSubmission, error) {
	var submission models.CodeSubmission
	if err := c.helpers.getDB(tx).WithContext(ctx).Where("judge_id = ?", judgeID).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// UpdateResult mirrors a terminal judge record onto the local row.
func (c *CodeSubmissionPostgreSQL) UpdateResult(ctx context.Context, tx *gorm.DB, judgeID string, record *models.SubmissionRecord) error {
	now := time.Now()
	err := c.helpers.getDB(tx).WithContext(ctx).
		Model(&models.CodeSubmission{}).
		Where("judge_id = ?", judgeID).
		Updates(map[string]interface{}{
			"status":    record.Status,
			"score":     record.Score,
			"max_score": record.MaxScore,
			"judged_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update submission result: %w", err)
	}
	return nil
}

func (c *CodeSubmissionPostgreSQL) CountByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) (int, error) {
	return c.helpers.countByOwner(ctx, tx, &models.CodeSubmission{}, owner)
}

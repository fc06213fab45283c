package repositories

import (
	"context"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"gorm.io/gorm"
)

// QuizAttemptRepository interface for graded quiz attempts
type QuizAttemptRepository interface {
	// CreateWithinLimit counts the owner's attempts under a lock and inserts attempt only
	// when the limit allows it; otherwise ErrAttemptLimitReached.
	CreateWithinLimit(ctx context.Context, attempt *models.QuizAttempt, limit LimitedCreate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, owner AttemptOwner) ([]*models.QuizAttempt, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, owner AttemptOwner) (int, error)
}

// CodeSubmissionRepository interface for the local mirror of judge submissions
type CodeSubmissionRepository interface {
	CreateWithinLimit(ctx context.Context, submission *models.CodeSubmission, limit LimitedCreate) error
	GetByJudgeID(ctx context.Context, tx *gorm.DB, judgeID string) (*models.CodeSubmission, error)
	UpdateResult(ctx context.Context, tx *gorm.DB, judgeID string, record *models.SubmissionRecord) error
	CountByOwner(ctx context.Context, tx *gorm.DB, owner AttemptOwner) (int, error)
}

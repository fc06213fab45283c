package repositories

import (
	"context"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for quiz and code-exercise definitions
type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

// ScheduleRepository interface for access windows
type ScheduleRepository interface {
	// GetByOwner returns nil without error when the owner has no window.
	GetByOwner(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error)
	Upsert(ctx context.Context, tx *gorm.DB, window *models.ScheduleWindow) error
	Delete(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) error
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
	ttl          time.Duration
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, ttl time.Duration) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
		ttl:          ttl,
	}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.helpers.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// GetByID retrieves an assessment by ID with caching
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	load := func() (*models.Assessment, error) {
		var assessment models.Assessment
		if err := a.helpers.getDB(tx).WithContext(ctx).First(&assessment, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get assessment: %w", err)
		}
		return &assessment, nil
	}

	// Reads inside a transaction bypass the cache.
	if tx != nil || a.cacheManager == nil {
		return load()
	}

	var assessment models.Assessment
	err := a.cacheManager.Assessment.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &assessment, a.ttl, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.helpers.getDB(tx).WithContext(ctx).Model(&models.Assessment{}).Where("id = ?", assessment.ID).Updates(map[string]interface{}{
		"title":              assessment.Title,
		"kind":               assessment.Kind,
		"course_id":          assessment.CourseID,
		"time_limit_minutes": assessment.TimeLimitMinutes,
		"max_attempts":       assessment.MaxAttempts,
		"questions":          assessment.Questions,
		"test_cases":         assessment.TestCases,
		"languages":          assessment.Languages,
	}).Error; err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}

	a.invalidate(ctx, assessment.ID)
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := a.helpers.getDB(tx).WithContext(ctx).Delete(&models.Assessment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	a.invalidate(ctx, id)
	return nil
}

func (a *AssessmentPostgreSQL) invalidate(ctx context.Context, id uint) {
	if a.cacheManager == nil {
		return
	}
	cache.SafeDelete(ctx, a.cacheManager.Assessment, fmt.Sprintf("id:%d", id))
}

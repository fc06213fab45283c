package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SchedulePostgreSQL struct {
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
	ttl          time.Duration
}

func NewSchedulePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, ttl time.Duration) repositories.ScheduleRepository {
	return &SchedulePostgreSQL{
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
		ttl:          ttl,
	}
}

func scheduleKey(ownerType models.ScheduleOwnerType, ownerID uint) string {
	return fmt.Sprintf("owner:%s:%d", ownerType, ownerID)
}

func (s *SchedulePostgreSQL) GetByOwner(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error) {
	load := func() (*models.ScheduleWindow, error) {
		var window models.ScheduleWindow
		err := s.helpers.getDB(tx).WithContext(ctx).
			Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
			First(&window).Error
		if err != nil {
			return nil, err
		}
		return &window, nil
	}

	var (
		window *models.ScheduleWindow
		err    error
	)
	if tx != nil || s.cacheManager == nil {
		window, err = load()
	} else {
		var cached models.ScheduleWindow
		err = s.cacheManager.Schedule.CacheOrExecute(ctx, scheduleKey(ownerType, ownerID), &cached, s.ttl, func() (interface{}, error) {
			return load()
		})
		window = &cached
	}

	// Absence is not cached; a missing window means unrestricted access.
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule window: %w", err)
	}
	return window, nil
}

func (s *SchedulePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, window *models.ScheduleWindow) error {
	err := s.helpers.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"open_at", "close_at", "updated_by", "updated_at"}),
		}).
		Create(window).Error
	if err != nil {
		return fmt.Errorf("failed to upsert schedule window: %w", err)
	}

	s.invalidate(ctx, window.OwnerType, window.OwnerID)
	return nil
}

func (s *SchedulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) error {
	result := s.helpers.getDB(tx).WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&models.ScheduleWindow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule window: %w", result.Error)
	}
	s.invalidate(ctx, ownerType, ownerID)

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *SchedulePostgreSQL) invalidate(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint) {
	if s.cacheManager == nil {
		return
	}
	cache.SafeDelete(ctx, s.cacheManager.Schedule, scheduleKey(ownerType, ownerID))
}

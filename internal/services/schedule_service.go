package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
)

// ScheduleService manages the access windows instructors attach to courses, quizzes and
// code exercises.
type ScheduleService struct {
	repo      repositories.ScheduleRepository
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewScheduleService(repo repositories.ScheduleRepository, validator *validator.Validator, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{
		repo:      repo,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment-session", Component: "schedules"}),
	}
}

// GetSchedule returns nil, nil when the owner has no window.
func (s *ScheduleService) GetSchedule(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error) {
	window, err := s.repo.GetByOwner(ctx, nil, ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return window, nil
}

func (s *ScheduleService) Get(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error) {
	window, err := s.GetSchedule(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, ErrScheduleNotFound
	}
	return window, nil
}

// Upsert creates or replaces the owner's window.
func (s *ScheduleService) Upsert(ctx context.Context, window *models.ScheduleWindow, editorID string) (result *models.ScheduleWindow, err error) {
	op := s.logger.WithOperation(ctx, "upsert_schedule", editorID)
	defer func() { op.LogResult(window.OwnerID, string(window.OwnerType), err) }()

	if err = s.validator.Validate(window); err != nil {
		return nil, err
	}

	window.UpdatedBy = editorID
	if err = s.repo.Upsert(ctx, nil, window); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}
	return window, nil
}

func (s *ScheduleService) Delete(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint, editorID string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_schedule", editorID)
	defer func() { op.LogResult(ownerID, string(ownerType), err) }()

	if err = s.repo.Delete(ctx, nil, ownerType, ownerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

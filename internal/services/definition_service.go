package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
)

// DefinitionService stores quiz and code-exercise definitions.
type DefinitionService struct {
	repo      repositories.AssessmentRepository
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewDefinitionService(repo repositories.AssessmentRepository, validator *validator.Validator, logger *slog.Logger) *DefinitionService {
	return &DefinitionService{
		repo:      repo,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment-session", Component: "definitions"}),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *DefinitionService) GetDefinition(ctx context.Context, id uint) (*models.AssessmentDefinition, error) {
	assessment, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment %d: %w", id, err)
	}
	return assessment.ToDefinition()
}

func (s *DefinitionService) CreateDefinition(ctx context.Context, def *models.AssessmentDefinition, authorID string) (result *models.AssessmentDefinition, err error) {
	op := s.logger.WithOperation(ctx, "create_definition", authorID)
	defer func() {
		var id uint
		if result != nil {
			id = result.ID
		}
		op.LogResult(id, "assessment", err)
	}()

	if err = s.validator.Validate(def); err != nil {
		return nil, err
	}

	assessment, err := models.NewAssessmentFromDefinition(def)
	if err != nil {
		return nil, err
	}
	assessment.ID = 0

	if err = s.repo.Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	return assessment.ToDefinition()
}

func (s *DefinitionService) UpdateDefinition(ctx context.Context, id uint, def *models.AssessmentDefinition, authorID string) (result *models.AssessmentDefinition, err error) {
	op := s.logger.WithOperation(ctx, "update_definition", authorID)
	defer func() { op.LogResult(id, "assessment", err) }()

	if err = s.validator.Validate(def); err != nil {
		return nil, err
	}
	if _, err = s.GetDefinition(ctx, id); err != nil {
		return nil, err
	}

	assessment, err := models.NewAssessmentFromDefinition(def)
	if err != nil {
		return nil, err
	}
	assessment.ID = id

	if err = s.repo.Update(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}
	return s.GetDefinition(ctx, id)
}

func (s *DefinitionService) DeleteDefinition(ctx context.Context, id uint, authorID string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_definition", authorID)
	defer func() { op.LogResult(id, "assessment", err) }()

	if err = s.repo.Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	return nil
}

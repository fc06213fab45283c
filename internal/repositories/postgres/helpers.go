package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SharedHelpers holds the query helpers shared by the attempt-counting repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

func (h *SharedHelpers) countByOwner(ctx context.Context, tx *gorm.DB, model interface{}, owner repositories.AttemptOwner) (int, error) {
	var count int64
	err := h.getDB(tx).WithContext(ctx).
		Model(model).
		Where("assessment_id = ? AND learner_id = ?", owner.AssessmentID, owner.LearnerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return int(count), nil
}

// createWithinLimit locks the assessment row so concurrent submissions for it serialize,
// re-counts the owner's attempts and inserts row only while the limit allows.
func (h *SharedHelpers) createWithinLimit(ctx context.Context, model interface{}, row interface{}, limit repositories.LimitedCreate) error {
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assessment models.Assessment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&assessment, limit.Owner.AssessmentID).Error; err != nil {
			return fmt.Errorf("failed to lock assessment %d: %w", limit.Owner.AssessmentID, err)
		}

		if limit.MaxAttempts > 0 {
			used, err := h.countByOwner(ctx, tx, model, limit.Owner)
			if err != nil {
				return err
			}
			if used >= limit.MaxAttempts {
				return repositories.ErrAttemptLimitReached
			}
		}

		if limit.BeforeCreate != nil {
			if err := limit.BeforeCreate(); err != nil {
				return err
			}
		}

		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		return nil
	})
}

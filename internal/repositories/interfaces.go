package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrAttemptLimitReached is returned by the CreateWithinLimit operations when the learner
// already used every permitted attempt.
var ErrAttemptLimitReached = errors.New("attempt limit reached")

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

// AttemptOwner identifies the attempts of one learner on one assessment.
type AttemptOwner struct {
	AssessmentID uint   `json:"assessment_id"`
	LearnerID    string `json:"learner_id"`
}

// LimitedCreate describes an insert guarded by an attempt limit. BeforeCreate runs inside the
// transaction after the limit check; returning an error rolls the attempt back.
type LimitedCreate struct {
	Owner        AttemptOwner
	MaxAttempts  int // 0 = unlimited
	BeforeCreate func() error
}

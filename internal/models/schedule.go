package models

import "time"

type ScheduleOwnerType string

const (
	OwnerCourse       ScheduleOwnerType = "course"
	OwnerQuiz         ScheduleOwnerType = "quiz"
	OwnerCodeExercise ScheduleOwnerType = "code_exercise"
)

// ScheduleWindow is an optional access window attached to a course, quiz or code exercise.
// A nil bound is open-ended; no window at all means unrestricted access.
type ScheduleWindow struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	OwnerType ScheduleOwnerType `json:"owner_type" gorm:"not null;size:32;uniqueIndex:idx_schedule_owner" validate:"required,owner_type"`
	OwnerID   uint              `json:"owner_id" gorm:"not null;uniqueIndex:idx_schedule_owner" validate:"required"`
	OpenAt    *time.Time        `json:"open_at"`
	CloseAt   *time.Time        `json:"close_at"`
	UpdatedBy string            `json:"updated_by" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ScheduleWindow) TableName() string {
	return "schedule_windows"
}

// IsOpenAt applies the window rules: before OpenAt is not open, at or after CloseAt is closed.
func (w *ScheduleWindow) IsOpenAt(now time.Time) bool {
	if w == nil {
		return true
	}
	if w.OpenAt != nil && now.Before(*w.OpenAt) {
		return false
	}
	if w.CloseAt != nil && !now.Before(*w.CloseAt) {
		return false
	}
	return true
}

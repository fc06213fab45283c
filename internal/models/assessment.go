package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentKind string

const (
	KindQuiz AssessmentKind = "quiz"
	KindCode AssessmentKind = "code"
)

// AssessmentDefinition identifies a gradable unit, either a quiz or a code exercise.
type AssessmentDefinition struct {
	ID               uint           `json:"id"`
	Title            string         `json:"title" validate:"required,max=200"`
	Kind             AssessmentKind `json:"kind" validate:"required,assessment_kind"`
	CourseID         *uint          `json:"course_id,omitempty"`
	TimeLimitMinutes *int           `json:"time_limit_minutes,omitempty" validate:"omitempty,min=1,max=600"`
	MaxAttempts      int            `json:"max_attempts" validate:"min=0"` // 0 = unlimited
	Questions        []Question     `json:"questions,omitempty" validate:"dive"`
	TestCases        []TestCase     `json:"test_cases,omitempty" validate:"dive"`
	Languages        []string       `json:"languages,omitempty"`
}

// ScheduleOwner returns the owner key of the access window guarding this assessment.
func (d *AssessmentDefinition) ScheduleOwner() (ScheduleOwnerType, uint) {
	if d.Kind == KindCode {
		return OwnerCodeExercise, d.ID
	}
	return OwnerQuiz, d.ID
}

// ResolveTimeLimit returns the session length in seconds: the configured minutes,
// or for quizzes without a limit secondsPerQuestion for every question.
func (d *AssessmentDefinition) ResolveTimeLimit(secondsPerQuestion int) (int, error) {
	if d.TimeLimitMinutes != nil && *d.TimeLimitMinutes > 0 {
		return *d.TimeLimitMinutes * 60, nil
	}
	if d.Kind == KindQuiz && secondsPerQuestion > 0 && len(d.Questions) > 0 {
		return len(d.Questions) * secondsPerQuestion, nil
	}
	return 0, fmt.Errorf("assessment %d has no resolvable time limit", d.ID)
}

// AllowsLanguage reports whether a code submission in language is accepted.
// An empty language list accepts any language.
func (d *AssessmentDefinition) AllowsLanguage(language string) bool {
	if len(d.Languages) == 0 {
		return true
	}
	for _, l := range d.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// PublicView returns a copy safe to show during a session: no answer keys, no hidden tests.
func (d *AssessmentDefinition) PublicView() *AssessmentDefinition {
	out := *d
	out.Questions = make([]Question, len(d.Questions))
	for i, q := range d.Questions {
		out.Questions[i] = q.PublicView()
	}
	out.TestCases = make([]TestCase, 0, len(d.TestCases))
	for _, tc := range d.TestCases {
		if !tc.Hidden {
			out.TestCases = append(out.TestCases, tc)
		}
	}
	return &out
}

// Assessment is the stored form of an AssessmentDefinition.
type Assessment struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"not null;size:200;index"`
	Kind             AssessmentKind `json:"kind" gorm:"not null;size:16;index"`
	CourseID         *uint          `json:"course_id" gorm:"index"`
	TimeLimitMinutes *int           `json:"time_limit_minutes"`
	MaxAttempts      int            `json:"max_attempts" gorm:"not null;default:0"`
	Questions        datatypes.JSON `json:"questions" gorm:"type:jsonb"`  // []Question
	TestCases        datatypes.JSON `json:"test_cases" gorm:"type:jsonb"` // []TestCase
	Languages        datatypes.JSON `json:"languages" gorm:"type:jsonb"`  // []string

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// ToDefinition decodes the JSON columns into an AssessmentDefinition.
func (a *Assessment) ToDefinition() (*AssessmentDefinition, error) {
	def := &AssessmentDefinition{
		ID:               a.ID,
		Title:            a.Title,
		Kind:             a.Kind,
		CourseID:         a.CourseID,
		TimeLimitMinutes: a.TimeLimitMinutes,
		MaxAttempts:      a.MaxAttempts,
	}
	if len(a.Questions) > 0 {
		if err := json.Unmarshal(a.Questions, &def.Questions); err != nil {
			return nil, fmt.Errorf("failed to decode questions: %w", err)
		}
	}
	if len(a.TestCases) > 0 {
		if err := json.Unmarshal(a.TestCases, &def.TestCases); err != nil {
			return nil, fmt.Errorf("failed to decode test cases: %w", err)
		}
	}
	if len(a.Languages) > 0 {
		if err := json.Unmarshal(a.Languages, &def.Languages); err != nil {
			return nil, fmt.Errorf("failed to decode languages: %w", err)
		}
	}
	return def, nil
}

// NewAssessmentFromDefinition encodes a definition into its stored form.
func NewAssessmentFromDefinition(def *AssessmentDefinition) (*Assessment, error) {
	questions, err := json.Marshal(def.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	testCases, err := json.Marshal(def.TestCases)
	if err != nil {
		return nil, fmt.Errorf("failed to encode test cases: %w", err)
	}
	languages, err := json.Marshal(def.Languages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode languages: %w", err)
	}
	return &Assessment{
		ID:               def.ID,
		Title:            def.Title,
		Kind:             def.Kind,
		CourseID:         def.CourseID,
		TimeLimitMinutes: def.TimeLimitMinutes,
		MaxAttempts:      def.MaxAttempts,
		Questions:        datatypes.JSON(questions),
		TestCases:        datatypes.JSON(testCases),
		Languages:        datatypes.JSON(languages),
	}, nil
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionResult is the per-question outcome. It carries the canonical answer and the
// learner's submission so a result view can rebuild the full comparison.
type QuestionResult struct {
	QuestionID     string       `json:"question_id"`
	Type           QuestionType `json:"type"`
	Correct        bool         `json:"correct"`
	Submitted      AnswerValue  `json:"submitted"`
	CorrectAnswer  *int         `json:"correct_answer,omitempty"`
	CorrectAnswers []int        `json:"correct_answers,omitempty"`
	Keywords       []string     `json:"keywords,omitempty"`
	CaseSensitive  bool         `json:"case_sensitive,omitempty"`
	Explanation    *string      `json:"explanation,omitempty"`
}

// GradeResult is the aggregate of a graded quiz: Correct out of Total questions.
type GradeResult struct {
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"per_question_results"`
}

// Percentage returns the share of correct questions in [0, 100].
func (r *GradeResult) Percentage() float64 {
	if r == nil || r.Total == 0 {
		return 0
	}
	return float64(r.Correct) * 100 / float64(r.Total)
}

// QuizAttempt is one graded quiz submission; its rows are what attempt limits count.
type QuizAttempt struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;index:idx_quiz_attempt_owner"`
	LearnerID    string         `json:"learner_id" gorm:"not null;size:255;index:idx_quiz_attempt_owner"`
	Correct      int            `json:"correct"`
	Total        int            `json:"total"`
	Answers      datatypes.JSON `json:"answers" gorm:"type:jsonb"` // AnswerPayload
	Results      datatypes.JSON `json:"results" gorm:"type:jsonb"` // []QuestionResult
	SubmittedAt  time.Time      `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

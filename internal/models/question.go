package models

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionText     QuestionType = "text"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// Question is a quiz question. Type selects which of the per-type fields apply:
// Options+CorrectAnswer (single), Options+CorrectAnswers (multiple),
// Keywords+CaseSensitive (text).
type Question struct {
	ID          string          `json:"id" validate:"required"`
	Type        QuestionType    `json:"type" validate:"required,question_type"`
	Text        string          `json:"text" validate:"required"`
	Difficulty  DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Explanation *string         `json:"explanation,omitempty"`

	// Choice questions
	Options        []string `json:"options,omitempty"`
	CorrectAnswer  *int     `json:"correct_answer,omitempty"`
	CorrectAnswers []int    `json:"correct_answers,omitempty"`

	// Text questions
	Keywords      []string `json:"keywords,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`
}

// IsChoice reports whether the question is answered by option index.
func (q Question) IsChoice() bool {
	return q.Type == QuestionSingle || q.Type == QuestionMultiple
}

// PublicView strips the answer key so the question can be shown during an active session.
func (q Question) PublicView() Question {
	q.CorrectAnswer = nil
	q.CorrectAnswers = nil
	q.Keywords = nil
	q.Explanation = nil
	return q
}

// TestCase is one judge test for a code exercise. Hidden cases are never shown to learners.
type TestCase struct {
	ID             string `json:"id" validate:"required"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden"`
	Points         int    `json:"points" validate:"min=0"`
}

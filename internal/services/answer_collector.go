package services

import (
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

// AnswerCollector owns the answer record of one session. It is not safe for concurrent
// use; SessionController serializes access to it.
type AnswerCollector struct {
	questions map[string]models.Question
	answers   models.AnswerPayload
	frozen    bool
}

func NewAnswerCollector(questions []models.Question) *AnswerCollector {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &AnswerCollector{
		questions: byID,
		answers:   make(models.AnswerPayload),
	}
}

// Set records value for a question, replacing any previous value.
func (c *AnswerCollector) Set(questionID string, value models.AnswerValue) error {
	if c.frozen {
		return ErrAnswersFrozen
	}
	q, ok := c.questions[questionID]
	if !ok {
		return NewValidationError("question_id", "unknown question", questionID)
	}
	if value == nil {
		value = models.EmptyAnswer(q.Type)
	}
	if value.QuestionType() != q.Type {
		return NewValidationError("value", fmt.Sprintf("expected a %s answer", q.Type), value.QuestionType())
	}

	switch v := value.(type) {
	case models.SingleAnswer:
		if v.Index != nil && !validOption(q, *v.Index) {
			return NewValidationError("value", "option index out of range", *v.Index)
		}
	case models.MultipleAnswer:
		for _, idx := range v.Indices {
			if !validOption(q, idx) {
				return NewValidationError("value", "option index out of range", idx)
			}
		}
		value = models.NewMultipleAnswer(v.Indices...)
	}

	c.answers[questionID] = models.CloneAnswer(value)
	return nil
}

// SetRaw decodes a wire value using the question's declared type, then records it.
func (c *AnswerCollector) SetRaw(questionID string, raw json.RawMessage) error {
	if c.frozen {
		return ErrAnswersFrozen
	}
	q, ok := c.questions[questionID]
	if !ok {
		return NewValidationError("question_id", "unknown question", questionID)
	}
	value, err := models.DecodeAnswer(q.Type, raw)
	if err != nil {
		return NewValidationError("value", err.Error(), string(raw))
	}
	return c.Set(questionID, value)
}

// Toggle adds or removes one option of a multiple-choice answer.
func (c *AnswerCollector) Toggle(questionID string, index int) error {
	if c.frozen {
		return ErrAnswersFrozen
	}
	q, ok := c.questions[questionID]
	if !ok {
		return NewValidationError("question_id", "unknown question", questionID)
	}
	if q.Type != models.QuestionMultiple {
		return NewValidationError("question_id", "toggle applies to multiple-choice questions only", q.Type)
	}
	if !validOption(q, index) {
		return NewValidationError("index", "option index out of range", index)
	}

	current, _ := c.answers[questionID].(models.MultipleAnswer)
	c.answers[questionID] = current.Toggle(index)
	return nil
}

// Get returns a copy of the recorded value.
func (c *AnswerCollector) Get(questionID string) (models.AnswerValue, bool) {
	v, ok := c.answers[questionID]
	if !ok {
		return nil, false
	}
	return models.CloneAnswer(v), true
}

// Answers returns a copy of the values recorded so far.
func (c *AnswerCollector) Answers() models.AnswerPayload {
	out := make(models.AnswerPayload, len(c.answers))
	for id, v := range c.answers {
		out[id] = models.CloneAnswer(v)
	}
	return out
}

// ToSubmissionPayload returns a value for every question, using the type's empty value
// where the learner gave none.
func (c *AnswerCollector) ToSubmissionPayload(questions []models.Question) models.AnswerPayload {
	out := make(models.AnswerPayload, len(questions))
	for _, q := range questions {
		if v, ok := c.answers[q.ID]; ok && v.QuestionType() == q.Type {
			out[q.ID] = models.CloneAnswer(v)
			continue
		}
		out[q.ID] = models.EmptyAnswer(q.Type)
	}
	return out
}

// Freeze rejects all further writes.
func (c *AnswerCollector) Freeze() {
	c.frozen = true
}

func (c *AnswerCollector) IsFrozen() bool {
	return c.frozen
}

func validOption(q models.Question, index int) bool {
	return index >= 0 && index < len(q.Options)
}

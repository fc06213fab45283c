package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

// QuestionValidator handles the per-type rules struct tags cannot express
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks that the answer key fits the question type.
func (v *QuestionValidator) ValidateQuestion(field string, q *models.Question) ValidationErrors {
	var errs ValidationErrors

	switch q.Type {
	case models.QuestionSingle:
		errs = append(errs, v.validateOptions(field, q)...)
		if q.CorrectAnswer == nil {
			errs = errs.Add(field+".correct_answer", "is required", nil)
		} else if *q.CorrectAnswer < 0 || *q.CorrectAnswer >= len(q.Options) {
			errs = errs.Add(field+".correct_answer", "must reference an existing option", *q.CorrectAnswer)
		}
	case models.QuestionMultiple:
		errs = append(errs, v.validateOptions(field, q)...)
		if len(q.CorrectAnswers) == 0 {
			errs = errs.Add(field+".correct_answers", "must not be empty", nil)
		}
		seen := make(map[int]bool, len(q.CorrectAnswers))
		for _, idx := range q.CorrectAnswers {
			if idx < 0 || idx >= len(q.Options) {
				errs = errs.Add(field+".correct_answers", "must reference existing options", idx)
				continue
			}
			if seen[idx] {
				errs = errs.Add(field+".correct_answers", "must not contain duplicates", idx)
			}
			seen[idx] = true
		}
	case models.QuestionText:
		if len(q.Keywords) == 0 {
			errs = errs.Add(field+".keywords", "must not be empty", nil)
		}
		for i, kw := range q.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = errs.Add(fmt.Sprintf("%s.keywords[%d]", field, i), "must not be blank", kw)
			}
		}
	default:
		errs = errs.Add(field+".type", "unsupported question type", q.Type)
	}

	return errs
}

func (v *QuestionValidator) validateOptions(field string, q *models.Question) ValidationErrors {
	var errs ValidationErrors
	if len(q.Options) == 0 {
		errs = errs.Add(field+".options", "must not be empty", len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = errs.Add(fmt.Sprintf("%s.options[%d]", field, i), "must not be blank", opt)
		}
	}
	return errs
}

// ValidateDefinition applies the per-kind rules to a whole assessment.
func (v *QuestionValidator) ValidateDefinition(def *models.AssessmentDefinition) ValidationErrors {
	var errs ValidationErrors

	switch def.Kind {
	case models.KindQuiz:
		if len(def.Questions) == 0 {
			errs = errs.Add("questions", "must not be empty", nil)
		}
		ids := make(map[string]bool, len(def.Questions))
		for i := range def.Questions {
			q := &def.Questions[i]
			field := fmt.Sprintf("questions[%d]", i)
			if ids[q.ID] {
				errs = errs.Add(field+".id", "must be unique", q.ID)
			}
			ids[q.ID] = true
			errs = append(errs, v.ValidateQuestion(field, q)...)
		}
	case models.KindCode:
		if len(def.TestCases) == 0 {
			errs = errs.Add("test_cases", "must not be empty", nil)
		}
		if def.TimeLimitMinutes == nil {
			errs = errs.Add("time_limit_minutes", "is required for code exercises", nil)
		}
	}

	return errs
}

// ValidateWindow checks that a window's bounds are ordered.
func ValidateWindow(w *models.ScheduleWindow) ValidationErrors {
	var errs ValidationErrors
	if w.OpenAt != nil && w.CloseAt != nil && !w.OpenAt.Before(*w.CloseAt) {
		errs = errs.Add("open_at", "must be before close_at", w.OpenAt)
	}
	return errs
}

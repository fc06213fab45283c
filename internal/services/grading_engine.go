package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// GradingEngine scores quiz answers. It holds no mutable state and is safe for concurrent use.
type GradingEngine struct {
	questionValidator *validator.QuestionValidator
}

func NewGradingEngine() *GradingEngine {
	return &GradingEngine{questionValidator: validator.NewQuestionValidator()}
}

// Grade scores answers against questions. Missing or mistyped answers are incorrect; an
// empty question set or a question without its answer key is a validation error.
func (e *GradingEngine) Grade(questions []models.Question, answers models.AnswerPayload) (*models.GradeResult, error) {
	if len(questions) == 0 {
		return nil, ValidationErrors{}.Add("questions", "must not be empty", nil)
	}

	var errs ValidationErrors
	for i := range questions {
		errs = append(errs, e.questionValidator.ValidateQuestion(fmt.Sprintf("questions[%d]", i), &questions[i])...)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	result := &models.GradeResult{
		Total:   len(questions),
		Results: make([]models.QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		submitted, ok := answers[q.ID]
		if !ok || submitted == nil {
			submitted = models.EmptyAnswer(q.Type)
		}

		correct := e.gradeQuestion(q, submitted)
		if correct {
			result.Correct++
		}

		result.Results = append(result.Results, models.QuestionResult{
			QuestionID:     q.ID,
			Type:           q.Type,
			Correct:        correct,
			Submitted:      models.CloneAnswer(submitted),
			CorrectAnswer:  copyIntPtr(q.CorrectAnswer),
			CorrectAnswers: append([]int(nil), q.CorrectAnswers...),
			Keywords:       append([]string(nil), q.Keywords...),
			CaseSensitive:  q.CaseSensitive,
			Explanation:    q.Explanation,
		})
	}

	return result, nil
}

func (e *GradingEngine) gradeQuestion(q models.Question, submitted models.AnswerValue) bool {
	switch q.Type {
	case models.QuestionSingle:
		a, ok := submitted.(models.SingleAnswer)
		return ok && a.Index != nil && q.CorrectAnswer != nil && *a.Index == *q.CorrectAnswer
	case models.QuestionMultiple:
		a, ok := submitted.(models.MultipleAnswer)
		return ok && sameIndexSet(a.Indices, q.CorrectAnswers)
	case models.QuestionText:
		a, ok := submitted.(models.TextAnswer)
		return ok && matchesKeyword(a.Text, q.Keywords, q.CaseSensitive)
	default:
		return false
	}
}

// sameIndexSet compares sorted, de-duplicated sets. There is no partial credit.
func sameIndexSet(submitted, correct []int) bool {
	a := sortedUnique(submitted)
	b := sortedUnique(correct)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedUnique(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}

// matchesKeyword trims and NFC-normalizes the submission and each keyword, then requires an
// exact match with one keyword, verbatim when caseSensitive, otherwise after Unicode case folding.
func matchesKeyword(text string, keywords []string, caseSensitive bool) bool {
	submitted := normalizeText(text)
	if submitted == "" {
		return false
	}

	// Casers carry state, so each call gets its own.
	fold := cases.Fold()
	if !caseSensitive {
		submitted = fold.String(submitted)
	}
	for _, kw := range keywords {
		candidate := normalizeText(kw)
		if !caseSensitive {
			candidate = fold.String(candidate)
		}
		if candidate != "" && submitted == candidate {
			return true
		}
	}
	return false
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

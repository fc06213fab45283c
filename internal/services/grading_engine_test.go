package services

import (
	"testing"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleQuestion() models.Question {
	return models.Question{
		ID:            "q1",
		Type:          models.QuestionSingle,
		Text:          "Pick the third option",
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: intPtr(2),
	}
}

func multipleQuestion() models.Question {
	return models.Question{
		ID:             "q2",
		Type:           models.QuestionMultiple,
		Text:           "Pick the first and the third",
		Options:        []string{"a", "b", "c"},
		CorrectAnswers: []int{0, 2},
	}
}

func textQuestion(caseSensitive bool) models.Question {
	return models.Question{
		ID:            "q3",
		Type:          models.QuestionText,
		Text:          "Capital of Vietnam",
		Keywords:      []string{"Hà Nội", "Ha Noi"},
		CaseSensitive: caseSensitive,
	}
}

func gradeOne(t *testing.T, q models.Question, answer models.AnswerValue) bool {
	t.Helper()
	answers := models.AnswerPayload{}
	if answer != nil {
		answers[q.ID] = answer
	}
	result, err := NewGradingEngine().Grade([]models.Question{q}, answers)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	return result.Results[0].Correct
}

func TestGrade_SingleChoice(t *testing.T) {
	q := singleQuestion()

	assert.True(t, gradeOne(t, q, models.NewSingleAnswer(2)))
	for _, idx := range []int{0, 1, 3} {
		assert.False(t, gradeOne(t, q, models.NewSingleAnswer(idx)), "index %d", idx)
	}
	assert.False(t, gradeOne(t, q, nil), "missing answer")
	assert.False(t, gradeOne(t, q, models.SingleAnswer{}), "empty answer")
}

func TestGrade_MultipleChoice(t *testing.T) {
	q := multipleQuestion()

	tests := []struct {
		name     string
		answer   models.AnswerValue
		expected bool
	}{
		{"exact set out of order", models.MultipleAnswer{Indices: []int{2, 0}}, true},
		{"exact set in order", models.NewMultipleAnswer(0, 2), true},
		{"subset earns nothing", models.NewMultipleAnswer(0), false},
		{"superset", models.NewMultipleAnswer(0, 1, 2), false},
		{"empty", models.MultipleAnswer{}, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gradeOne(t, q, tt.answer))
		})
	}
}

func TestGrade_TextAnswer(t *testing.T) {
	t.Run("case insensitive folds case", func(t *testing.T) {
		assert.True(t, gradeOne(t, textQuestion(false), models.TextAnswer{Text: "ha noi"}))
		assert.True(t, gradeOne(t, textQuestion(false), models.TextAnswer{Text: "  HÀ NỘI "}))
	})

	t.Run("case sensitive compares verbatim", func(t *testing.T) {
		assert.False(t, gradeOne(t, textQuestion(true), models.TextAnswer{Text: "ha noi"}))
		assert.True(t, gradeOne(t, textQuestion(true), models.TextAnswer{Text: " Ha Noi"}))
	})

	t.Run("no substring matches", func(t *testing.T) {
		assert.False(t, gradeOne(t, textQuestion(false), models.TextAnswer{Text: "noi"}))
		assert.False(t, gradeOne(t, textQuestion(false), models.TextAnswer{Text: "ha noi city"}))
	})

	t.Run("blank is incorrect", func(t *testing.T) {
		assert.False(t, gradeOne(t, textQuestion(false), models.TextAnswer{Text: "   "}))
	})

	t.Run("padded keyword matches under both settings", func(t *testing.T) {
		for _, caseSensitive := range []bool{false, true} {
			q := textQuestion(caseSensitive)
			q.Keywords = []string{"Ha Noi "}
			assert.True(t, gradeOne(t, q, models.TextAnswer{Text: "Ha Noi "}), "caseSensitive=%v", caseSensitive)
			assert.True(t, gradeOne(t, q, models.TextAnswer{Text: "Ha Noi"}), "caseSensitive=%v", caseSensitive)
		}
	})

	t.Run("case sensitive normalizes composition", func(t *testing.T) {
		// "Hà Nội" typed with combining marks.
		decomposed := "Ha\u0300 No\u0323\u0302i"
		assert.True(t, gradeOne(t, textQuestion(true), models.TextAnswer{Text: decomposed}))
	})
}

func TestGrade_MistypedAnswerIsIncorrect(t *testing.T) {
	assert.False(t, gradeOne(t, singleQuestion(), models.TextAnswer{Text: "2"}))
}

func TestGrade_Aggregate(t *testing.T) {
	questions := []models.Question{singleQuestion(), multipleQuestion(), textQuestion(false)}
	answers := models.AnswerPayload{
		"q1": models.NewSingleAnswer(2),
		"q2": models.NewMultipleAnswer(0),
		"q3": models.TextAnswer{Text: "Ha Noi"},
	}

	engine := NewGradingEngine()
	first, err := engine.Grade(questions, answers)
	require.NoError(t, err)
	second, err := engine.Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Correct)
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, first, second, "grading must be deterministic")

	require.Len(t, first.Results, 3)
	assert.Equal(t, []int{0, 2}, first.Results[1].CorrectAnswers)
	assert.Equal(t, models.NewMultipleAnswer(0), first.Results[1].Submitted)
}

func TestGrade_InvalidInput(t *testing.T) {
	engine := NewGradingEngine()

	_, err := engine.Grade(nil, models.AnswerPayload{})
	assert.True(t, IsValidation(err))

	broken := singleQuestion()
	broken.CorrectAnswer = nil
	_, err = engine.Grade([]models.Question{broken}, models.AnswerPayload{})
	assert.True(t, IsValidation(err))
}

package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestResultExporter_QuizWorkbook(t *testing.T) {
	def := quizDefinition()
	grade, err := NewGradingEngine().Grade(def.Questions, models.AnswerPayload{
		"q1": models.NewSingleAnswer(1),
		"q2": models.NewMultipleAnswer(0, 2),
	})
	require.NoError(t, err)

	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	data, err := NewResultExporter().ExportSession(&models.AssessmentSession{
		SessionID:  "session-1",
		LearnerID:  learner,
		Kind:       models.KindQuiz,
		State:      models.SessionGraded,
		StartedAt:  &started,
		Definition: def,
		Result:     &models.SessionResult{Quiz: grade},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Contains(t, summary, []string{"Assessment", "Geography"})
	assert.Contains(t, summary, []string{"Correct", "1"})
	assert.Contains(t, summary, []string{"Started At", "2025-03-01 09:00:00"})

	answers, err := f.GetRows(answersSheet)
	require.NoError(t, err)
	require.Len(t, answers, 4)
	assert.Equal(t, []string{"Pick the third option", "single", "b", "c", "Incorrect"}, answers[1])
	assert.Equal(t, []string{"Pick the first and the third", "multiple", "a, c", "a, c", "Correct"}, answers[2])
	assert.Equal(t, "Hà Nội / Ha Noi", answers[3][3])
}

func TestResultExporter_RequiresResult(t *testing.T) {
	_, err := NewResultExporter().ExportSession(&models.AssessmentSession{State: models.SessionActive})
	assert.ErrorIs(t, err, ErrNoResult)
}

package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	answersSheet = "Answers"
)

// ResultExporter renders a graded session as an xlsx workbook.
type ResultExporter struct{}

func NewResultExporter() *ResultExporter {
	return &ResultExporter{}
}

// ExportSession writes a Summary sheet and, for quizzes, one Answers row per question.
// Sessions without a result cannot be exported.
func (e *ResultExporter) ExportSession(snapshot *models.AssessmentSession) ([]byte, error) {
	if snapshot.Result == nil {
		return nil, ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1; rename it rather than leave an empty tab.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	title := ""
	if snapshot.Definition != nil {
		title = snapshot.Definition.Title
	}
	summary := [][]interface{}{
		{"Session", snapshot.SessionID},
		{"Assessment", title},
		{"Learner", snapshot.LearnerID},
		{"Kind", string(snapshot.Kind)},
		{"State", string(snapshot.State)},
	}
	if snapshot.StartedAt != nil {
		summary = append(summary, []interface{}{"Started At", snapshot.StartedAt.Format(time.DateTime)})
	}

	result := snapshot.Result
	switch {
	case result.Quiz != nil:
		summary = append(summary,
			[]interface{}{"Correct", result.Quiz.Correct},
			[]interface{}{"Total", result.Quiz.Total},
			[]interface{}{"Percentage", result.Quiz.Percentage()},
		)
	case result.Submission != nil:
		summary = append(summary,
			[]interface{}{"Submission", result.SubmissionID},
			[]interface{}{"Status", string(result.Submission.Status)},
			[]interface{}{"Score", result.Submission.Score},
			[]interface{}{"Max Score", result.Submission.MaxScore},
		)
	case result.Pending:
		summary = append(summary,
			[]interface{}{"Submission", result.SubmissionID},
			[]interface{}{"Status", result.Message},
		)
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	if result.Quiz != nil {
		if err := e.writeAnswers(f, snapshot.Definition, result.Quiz); err != nil {
			return nil, err
		}
	}
	if result.Submission != nil && len(result.Submission.PerTestResults) > 0 {
		if err := e.writeTests(f, result.Submission); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ResultExporter) writeAnswers(f *excelize.File, def *models.AssessmentDefinition, grade *models.GradeResult) error {
	if _, err := f.NewSheet(answersSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	questions := make(map[string]models.Question)
	if def != nil {
		for _, q := range def.Questions {
			questions[q.ID] = q
		}
	}

	rows := [][]interface{}{{"Question", "Type", "Your Answer", "Correct Answer", "Result"}}
	for _, r := range grade.Results {
		q := questions[r.QuestionID]
		text := q.Text
		if text == "" {
			text = r.QuestionID
		}
		verdict := "Incorrect"
		if r.Correct {
			verdict = "Correct"
		}
		rows = append(rows, []interface{}{
			text,
			string(r.Type),
			formatAnswer(q, r.Submitted),
			formatKey(q, r),
			verdict,
		})
	}
	return writeRows(f, answersSheet, rows)
}

func (e *ResultExporter) writeTests(f *excelize.File, record *models.SubmissionRecord) error {
	const sheet = "Tests"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	rows := [][]interface{}{{"Test Case", "Status", "Passed", "Time (ms)", "Memory (KB)"}}
	for _, tr := range record.PerTestResults {
		rows = append(rows, []interface{}{tr.TestCaseID, tr.Status, tr.Passed, tr.ExecutionTime, tr.MemoryUsed})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func formatAnswer(q models.Question, v models.AnswerValue) string {
	switch a := v.(type) {
	case models.SingleAnswer:
		if a.Index == nil {
			return ""
		}
		return optionLabel(q, *a.Index)
	case models.MultipleAnswer:
		return optionLabels(q, a.Indices)
	case models.TextAnswer:
		return a.Text
	}
	return ""
}

func formatKey(q models.Question, r models.QuestionResult) string {
	switch r.Type {
	case models.QuestionSingle:
		if r.CorrectAnswer == nil {
			return ""
		}
		return optionLabel(q, *r.CorrectAnswer)
	case models.QuestionMultiple:
		return optionLabels(q, r.CorrectAnswers)
	case models.QuestionText:
		return strings.Join(r.Keywords, " / ")
	}
	return ""
}

func optionLabels(q models.Question, indices []int) string {
	labels := make([]string, 0, len(indices))
	for _, idx := range indices {
		labels = append(labels, optionLabel(q, idx))
	}
	return strings.Join(labels, ", ")
}

func optionLabel(q models.Question, index int) string {
	if index >= 0 && index < len(q.Options) {
		return q.Options[index]
	}
	return strconv.Itoa(index)
}

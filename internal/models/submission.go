package models

import "time"

// SubmissionStatus is the judge's status for a code submission.
type SubmissionStatus string

const (
	SubmissionPending           SubmissionStatus = "Pending"
	SubmissionJudging           SubmissionStatus = "Judging"
	SubmissionAccepted          SubmissionStatus = "Accepted"
	SubmissionPartial           SubmissionStatus = "Partial"
	SubmissionWrongAnswer       SubmissionStatus = "Wrong Answer"
	SubmissionRuntimeError      SubmissionStatus = "Runtime Error"
	SubmissionTimeLimitExceeded SubmissionStatus = "Time Limit Exceeded"
	SubmissionCompilationError  SubmissionStatus = "Compilation Error"
)

// IsTerminal reports whether the status is a final grading outcome.
// Unknown statuses other than Pending and Judging are treated as terminal.
func (s SubmissionStatus) IsTerminal() bool {
	return s != SubmissionPending && s != SubmissionJudging && s != ""
}

type TestCaseResult struct {
	TestCaseID    string `json:"test_case_id"`
	Passed        bool   `json:"passed"`
	Status        string `json:"status"`
	ExecutionTime int    `json:"execution_time"` // ms
	MemoryUsed    int    `json:"memory_used"`    // KB
	Output        string `json:"output,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SubmissionRecord is the judge-owned view of a code submission.
type SubmissionRecord struct {
	ID                 string           `json:"id"`
	Status             SubmissionStatus `json:"status"`
	PerTestResults     []TestCaseResult `json:"per_test_results"`
	Score              int              `json:"score"`
	MaxScore           int              `json:"max_score"`
	TotalExecutionTime int              `json:"total_execution_time"` // ms
	MaxMemoryUsed      int              `json:"max_memory_used"`      // KB
}

// CodeSubmission mirrors a judge submission locally so attempts can be counted.
type CodeSubmission struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	JudgeID      string           `json:"judge_id" gorm:"not null;uniqueIndex;size:64"`
	AssessmentID uint             `json:"assessment_id" gorm:"not null;index:idx_code_submission_owner"`
	LearnerID    string           `json:"learner_id" gorm:"not null;size:255;index:idx_code_submission_owner"`
	Language     string           `json:"language" gorm:"not null;size:32"`
	Code         string           `json:"code" gorm:"type:text"`
	Status       SubmissionStatus `json:"status" gorm:"not null;size:32;default:Pending"`
	Score        int              `json:"score"`
	MaxScore     int              `json:"max_score"`
	JudgedAt     *time.Time       `json:"judged_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CodeSubmission) TableName() string {
	return "code_submissions"
}

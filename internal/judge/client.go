package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

// ErrSubmissionNotFound is returned when the judge does not know the submission id.
var ErrSubmissionNotFound = errors.New("judge: submission not found")

// StatusError is a non-2xx answer from the judge.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("judge: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// SubmitRequest is the payload the judge expects for a new submission.
type SubmitRequest struct {
	ExerciseID uint              `json:"exercise_id"`
	LearnerID  string            `json:"learner_id"`
	Code       string            `json:"code"`
	Language   string            `json:"language"`
	TestCases  []models.TestCase `json:"test_cases"`
}

type submitResponse struct {
	SubmissionID string `json:"submission_id"`
}

// Client talks to the external code-execution judge over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "judge_client"),
	}
}

// Submit sends code to the judge and returns the judge-assigned submission id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("judge: failed to encode submission: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/submissions", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.SubmissionID == "" {
		return "", errors.New("judge: response carried no submission id")
	}

	c.logger.InfoContext(ctx, "Submitted code to judge",
		"submission_id", resp.SubmissionID,
		"exercise_id", req.ExerciseID,
		"language", req.Language)
	return resp.SubmissionID, nil
}

// Status fetches the current judge record for a submission.
func (c *Client) Status(ctx context.Context, submissionID string) (*models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	if err := c.do(ctx, http.MethodGet, "/submissions/"+url.PathEscape(submissionID), nil, &record); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if record.ID == "" {
		record.ID = submissionID
	}
	return &record, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("judge: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("judge: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("judge: failed to decode response: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
)

const (
	DefaultPollInterval    = time.Second
	DefaultPollMaxAttempts = 30
)

// AsyncGradingTracker polls the judge until a submission reaches a terminal status or the
// polling budget runs out.
type AsyncGradingTracker struct {
	source      SubmissionStatusSource
	interval    time.Duration
	maxAttempts int
	publisher   events.EventPublisher
	logger      *slog.Logger
}

func NewAsyncGradingTracker(source SubmissionStatusSource, interval time.Duration, maxAttempts int, publisher events.EventPublisher, logger *slog.Logger) *AsyncGradingTracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &AsyncGradingTracker{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
		publisher:   publisher,
		logger:      logger.With("component", "async_grading_tracker"),
	}
}

// Poll fetches the submission status starting at attempt. A terminal record is returned
// as-is. A Pending or Judging status is fetched again after the interval until attempt
// reaches the ceiling, then *PollTimeoutError is returned; starting at 0 that is
// maxAttempts+1 fetches.
func (t *AsyncGradingTracker) Poll(ctx context.Context, submissionID string, attempt int) (*models.SubmissionRecord, error) {
	timer := time.NewTimer(t.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		record, err := t.source.SubmissionStatus(ctx, submissionID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch status of submission %s: %w", submissionID, err)
		}

		if record.Status.IsTerminal() {
			t.logger.InfoContext(ctx, "Submission judged",
				"submission_id", submissionID,
				"status", record.Status,
				"polls", attempt+1)
			return record, nil
		}

		if attempt >= t.maxAttempts {
			timeoutErr := &PollTimeoutError{
				SubmissionID: submissionID,
				Attempts:     attempt + 1,
				LastStatus:   string(record.Status),
			}
			t.logger.WarnContext(ctx, "Polling budget exhausted",
				"submission_id", submissionID,
				"last_status", record.Status,
				"polls", attempt+1)
			t.publishTimeout(ctx, timeoutErr)
			return nil, timeoutErr
		}

		timer.Reset(t.interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (t *AsyncGradingTracker) publishTimeout(ctx context.Context, timeoutErr *PollTimeoutError) {
	if t.publisher == nil {
		return
	}
	event := events.NewSubmissionTimedOutEvent(events.SubmissionTimedOutEvent{
		SubmissionID: timeoutErr.SubmissionID,
		Attempts:     timeoutErr.Attempts,
		LastStatus:   timeoutErr.LastStatus,
	})
	if err := t.publisher.PublishSessionEvent(ctx, event); err != nil {
		t.logger.WarnContext(ctx, "Failed to publish poll timeout event", "error", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func judging(id string) *models.SubmissionRecord {
	return &models.SubmissionRecord{ID: id, Status: models.SubmissionJudging}
}

func TestAsyncGradingTracker_TimesOutAfterBudget(t *testing.T) {
	ctx := context.Background()

	source := new(MockStatusSource)
	source.On("SubmissionStatus", ctx, "sub-1").Return(judging("sub-1"), nil)

	publisher := events.NewMockEventPublisher(testLogger())
	tracker := NewAsyncGradingTracker(source, time.Millisecond, DefaultPollMaxAttempts, publisher, testLogger())

	record, err := tracker.Poll(ctx, "sub-1", 0)
	assert.Nil(t, record)

	var timeoutErr *PollTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 31, timeoutErr.Attempts)
	assert.Equal(t, string(models.SubmissionJudging), timeoutErr.LastStatus)
	source.AssertNumberOfCalls(t, "SubmissionStatus", 31)
	assert.Len(t, publisher.EventsOfType(events.EventSubmissionTimedOut), 1)
}

func TestAsyncGradingTracker_ReturnsTerminalRecord(t *testing.T) {
	ctx := context.Background()
	done := &models.SubmissionRecord{ID: "sub-2", Status: models.SubmissionAccepted, Score: 10, MaxScore: 10}

	source := new(MockStatusSource)
	source.On("SubmissionStatus", ctx, "sub-2").Return(&models.SubmissionRecord{ID: "sub-2", Status: models.SubmissionPending}, nil).Once()
	source.On("SubmissionStatus", ctx, "sub-2").Return(judging("sub-2"), nil).Once()
	source.On("SubmissionStatus", ctx, "sub-2").Return(done, nil).Once()

	tracker := NewAsyncGradingTracker(source, time.Millisecond, 30, nil, testLogger())

	record, err := tracker.Poll(ctx, "sub-2", 0)
	require.NoError(t, err)
	assert.Equal(t, done, record)
	source.AssertExpectations(t)
}

func TestAsyncGradingTracker_UnknownStatusIsTerminal(t *testing.T) {
	ctx := context.Background()
	source := new(MockStatusSource)
	source.On("SubmissionStatus", ctx, "sub-3").Return(&models.SubmissionRecord{ID: "sub-3", Status: "Memory Limit Exceeded"}, nil)

	record, err := NewAsyncGradingTracker(source, time.Millisecond, 30, nil, testLogger()).Poll(ctx, "sub-3", 0)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatus("Memory Limit Exceeded"), record.Status)
}

func TestAsyncGradingTracker_FetchErrorIsWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	source := new(MockStatusSource)
	source.On("SubmissionStatus", ctx, "sub-4").Return(nil, boom)

	_, err := NewAsyncGradingTracker(source, time.Millisecond, 30, nil, testLogger()).Poll(ctx, "sub-4", 0)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsPollTimeout(err))
}

func TestAsyncGradingTracker_StartingAttemptCountsTowardBudget(t *testing.T) {
	ctx := context.Background()
	source := new(MockStatusSource)
	source.On("SubmissionStatus", ctx, "sub-5").Return(judging("sub-5"), nil)

	_, err := NewAsyncGradingTracker(source, time.Millisecond, 30, nil, testLogger()).Poll(ctx, "sub-5", 28)
	assert.True(t, IsPollTimeout(err))
	source.AssertNumberOfCalls(t, "SubmissionStatus", 3)
}

func TestAsyncGradingTracker_ContextCancelStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := new(MockStatusSource)
	source.On("SubmissionStatus", mock.Anything, "sub-6").Return(judging("sub-6"), nil).Run(func(mock.Arguments) {
		cancel()
	})

	_, err := NewAsyncGradingTracker(source, time.Hour, 30, nil, testLogger()).Poll(ctx, "sub-6", 0)
	assert.ErrorIs(t, err, context.Canceled)
	source.AssertNumberOfCalls(t, "SubmissionStatus", 1)
}

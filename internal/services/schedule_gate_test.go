package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/config"
	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		window   *models.ScheduleWindow
		expected AccessStatus
	}{
		{"no window", nil, AccessOpen},
		{"opens in an hour", &models.ScheduleWindow{OpenAt: timePtr(now.Add(time.Hour))}, AccessNotOpen},
		{"closed an hour ago", &models.ScheduleWindow{CloseAt: timePtr(now.Add(-time.Hour))}, AccessClosed},
		{"inside window", &models.ScheduleWindow{OpenAt: timePtr(now.Add(-time.Hour)), CloseAt: timePtr(now.Add(time.Hour))}, AccessOpen},
		{"open bound is inclusive", &models.ScheduleWindow{OpenAt: timePtr(now)}, AccessOpen},
		{"close bound is exclusive", &models.ScheduleWindow{CloseAt: timePtr(now)}, AccessClosed},
		{"empty window", &models.ScheduleWindow{}, AccessOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.window, now)
			assert.Equal(t, tt.expected, decision.Status)
			assert.Equal(t, tt.window.IsOpenAt(now), decision.IsOpen())
		})
	}
}

func TestEvaluate_Messages(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	decision := Evaluate(&models.ScheduleWindow{OpenAt: timePtr(now.Add(time.Hour))}, now)
	assert.Contains(t, decision.Message, "Opens at 2025-03-01T13:00:00Z")

	decision = Evaluate(&models.ScheduleWindow{CloseAt: timePtr(now.Add(-time.Hour))}, now)
	assert.Contains(t, decision.Message, "Closed since 2025-03-01T11:00:00Z")
}

func TestScheduleGate_CheckDefinition(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	courseID := uint(9)
	def := &models.AssessmentDefinition{ID: 4, Kind: models.KindQuiz, CourseID: &courseID}

	t.Run("course window closes an open quiz", func(t *testing.T) {
		source := new(MockScheduleSource)
		source.On("GetSchedule", ctx, models.OwnerQuiz, uint(4)).Return(nil, nil)
		source.On("GetSchedule", ctx, models.OwnerCourse, uint(9)).
			Return(&models.ScheduleWindow{CloseAt: timePtr(now.Add(-time.Minute))}, nil)

		gate := NewScheduleGate(source, config.GatePolicyOpen, nil, testLogger())
		assert.Equal(t, AccessClosed, gate.CheckDefinition(ctx, def, now).Status)
		source.AssertExpectations(t)
	})

	t.Run("quiz window wins without looking at the course", func(t *testing.T) {
		source := new(MockScheduleSource)
		source.On("GetSchedule", ctx, models.OwnerQuiz, uint(4)).
			Return(&models.ScheduleWindow{OpenAt: timePtr(now.Add(time.Hour))}, nil)

		gate := NewScheduleGate(source, config.GatePolicyOpen, nil, testLogger())
		assert.Equal(t, AccessNotOpen, gate.CheckDefinition(ctx, def, now).Status)
		source.AssertNotCalled(t, "GetSchedule", ctx, models.OwnerCourse, uint(9))
	})

	t.Run("code exercises use their own owner type", func(t *testing.T) {
		source := new(MockScheduleSource)
		source.On("GetSchedule", ctx, models.OwnerCodeExercise, uint(5)).Return(nil, nil)

		gate := NewScheduleGate(source, config.GatePolicyOpen, nil, testLogger())
		decision := gate.CheckDefinition(ctx, &models.AssessmentDefinition{ID: 5, Kind: models.KindCode}, now)
		assert.True(t, decision.IsOpen())
	})
}

func TestScheduleGate_LookupFailure(t *testing.T) {
	ctx := context.Background()

	source := new(MockScheduleSource)
	source.On("GetSchedule", mock.Anything, models.OwnerQuiz, uint(1)).Return(nil, errors.New("redis timeout"))

	t.Run("fail open grants access and reports it", func(t *testing.T) {
		publisher := events.NewMockEventPublisher(testLogger())
		gate := NewScheduleGate(source, config.GatePolicyOpen, publisher, testLogger())

		decision := gate.CheckAccess(ctx, models.OwnerQuiz, 1, time.Now())
		assert.Equal(t, AccessOpen, decision.Status)
		assert.True(t, decision.Degraded)
		assert.Len(t, publisher.EventsOfType(events.EventGateDegraded), 1)
	})

	t.Run("fail closed reports an error", func(t *testing.T) {
		gate := NewScheduleGate(source, config.GatePolicyClosed, nil, testLogger())

		decision := gate.CheckAccess(ctx, models.OwnerQuiz, 1, time.Now())
		assert.Equal(t, AccessError, decision.Status)
		assert.False(t, decision.IsOpen())
	})
}

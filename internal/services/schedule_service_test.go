package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScheduleService_Upsert(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("valid window is saved", func(t *testing.T) {
		repo := new(MockScheduleRepository)
		repo.On("Upsert", ctx, mock.Anything, mock.AnythingOfType("*models.ScheduleWindow")).Return(nil)

		window := &models.ScheduleWindow{
			OwnerType: models.OwnerQuiz,
			OwnerID:   3,
			OpenAt:    timePtr(now),
			CloseAt:   timePtr(now.Add(time.Hour)),
		}
		saved, err := NewScheduleService(repo, validator.New(), testLogger()).Upsert(ctx, window, "instructor-1")
		require.NoError(t, err)
		assert.Equal(t, "instructor-1", saved.UpdatedBy)
		repo.AssertExpectations(t)
	})

	t.Run("open must precede close", func(t *testing.T) {
		for _, closeAt := range []time.Time{now, now.Add(-time.Minute)} {
			repo := new(MockScheduleRepository)
			window := &models.ScheduleWindow{OwnerType: models.OwnerQuiz, OwnerID: 3, OpenAt: timePtr(now), CloseAt: timePtr(closeAt)}

			_, err := NewScheduleService(repo, validator.New(), testLogger()).Upsert(ctx, window, "instructor-1")
			assert.True(t, IsValidation(err))
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("unknown owner type", func(t *testing.T) {
		window := &models.ScheduleWindow{OwnerType: "module", OwnerID: 3}
		_, err := NewScheduleService(new(MockScheduleRepository), validator.New(), testLogger()).Upsert(ctx, window, "instructor-1")
		assert.True(t, IsValidation(err))
	})
}

func TestScheduleService_GetAndDelete(t *testing.T) {
	ctx := context.Background()

	repo := new(MockScheduleRepository)
	repo.On("GetByOwner", ctx, mock.Anything, models.OwnerCourse, uint(1)).Return(nil, nil)
	repo.On("Delete", ctx, mock.Anything, models.OwnerCourse, uint(1)).Return(gorm.ErrRecordNotFound)

	svc := NewScheduleService(repo, validator.New(), testLogger())

	window, err := svc.GetSchedule(ctx, models.OwnerCourse, 1)
	require.NoError(t, err)
	assert.Nil(t, window)

	_, err = svc.Get(ctx, models.OwnerCourse, 1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, models.OwnerCourse, 1, "instructor-1"), ErrScheduleNotFound)
}

func TestDefinitionService(t *testing.T) {
	ctx := context.Background()

	t.Run("create stores the encoded definition", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		repo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Assessment")).
			Run(func(args mock.Arguments) { args.Get(2).(*models.Assessment).ID = 11 }).
			Return(nil)

		def, err := NewDefinitionService(repo, validator.New(), testLogger()).CreateDefinition(ctx, quizDefinition(), "instructor-1")
		require.NoError(t, err)
		assert.Equal(t, uint(11), def.ID)
		assert.Len(t, def.Questions, 3)
	})

	t.Run("invalid definitions are rejected", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		def := quizDefinition()
		def.Questions[1].CorrectAnswers = nil

		_, err := NewDefinitionService(repo, validator.New(), testLogger()).CreateDefinition(ctx, def, "instructor-1")
		assert.True(t, IsValidation(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing definition maps to not found", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		repo.On("GetByID", ctx, mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)

		_, err := NewDefinitionService(repo, validator.New(), testLogger()).GetDefinition(ctx, 5)
		assert.ErrorIs(t, err, ErrAssessmentNotFound)
	})

	t.Run("round trip through storage", func(t *testing.T) {
		stored, err := models.NewAssessmentFromDefinition(codeDefinition())
		require.NoError(t, err)

		repo := new(MockAssessmentRepository)
		repo.On("GetByID", ctx, mock.Anything, uint(2)).Return(stored, nil)

		def, err := NewDefinitionService(repo, validator.New(), testLogger()).GetDefinition(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, codeDefinition(), def)
	})
}

func TestSessionManager(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture().openWindow().attemptsUsed(0)

	defs := new(MockDefinitionSource)
	defs.On("GetDefinition", ctx, uint(1)).Return(quizDefinition(), nil)
	defs.On("GetDefinition", ctx, uint(9)).Return(nil, ErrAssessmentNotFound)

	manager := NewSessionManager(defs, f.deps, f.cfg, testLogger())
	defer manager.CloseAll()

	s, err := manager.Open(ctx, 1, learner)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, s.State())
	assert.Equal(t, 1, manager.Count())

	got, err := manager.Get(s.ID(), learner)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = manager.Get(s.ID(), "someone-else")
	assert.ErrorIs(t, err, ErrSessionNotFound, "sessions are private to their learner")

	_, err = manager.Open(ctx, 9, learner)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
	assert.Equal(t, 1, manager.Count())

	require.NoError(t, manager.Close(s.ID(), learner))
	assert.True(t, s.IsClosed())
	assert.Equal(t, 0, manager.Count())
	assert.ErrorIs(t, manager.Close(s.ID(), learner), ErrSessionNotFound)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func TestSessionManager_Sweep(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	newManager := func(f *sessionFixture, clock *testClock) *SessionManager {
		defs := new(MockDefinitionSource)
		defs.On("GetDefinition", ctx, uint(1)).Return(quizDefinition(), nil)
		f.cfg = SessionConfig{
			TickInterval:       time.Hour,
			SecondsPerQuestion: 60,
			Now:                clock.Now,
			Retention:          10 * time.Minute,
			DeadlineGrace:      2 * time.Minute,
		}
		return NewSessionManager(defs, f.deps, f.cfg, testLogger())
	}

	t.Run("locked sessions are evicted after retention", func(t *testing.T) {
		clock := &testClock{now: start}
		manager := newManager(newSessionFixture().openWindow().attemptsUsed(3), clock)
		defer manager.CloseAll()

		for i := 0; i < 50; i++ {
			s, err := manager.Open(ctx, 1, learner)
			require.NoError(t, err)
			require.Equal(t, models.SessionLockedAttempt, s.State())
		}
		assert.Equal(t, 50, manager.Count())

		assert.Zero(t, manager.Sweep(start.Add(10*time.Minute-time.Second)))
		assert.Equal(t, 50, manager.Count())

		assert.Equal(t, 50, manager.Sweep(start.Add(10*time.Minute)))
		assert.Zero(t, manager.Count())
	})

	t.Run("graded session is evicted after retention", func(t *testing.T) {
		clock := &testClock{now: start}
		f := newSessionFixture().openWindow().attemptsUsed(0)
		f.quiz.On("SubmitQuiz", mock.Anything, uint(1), learner, mock.Anything).
			Return(&models.GradeResult{Total: 2}, nil)
		manager := newManager(f, clock)
		defer manager.CloseAll()

		s, err := manager.Open(ctx, 1, learner)
		require.NoError(t, err)
		require.NoError(t, s.ForceSubmit(ctx))
		require.Equal(t, models.SessionGraded, s.State())

		assert.Zero(t, manager.Sweep(start.Add(time.Minute)))
		_, err = manager.Get(s.ID(), learner)
		assert.NoError(t, err, "graded session stays readable")

		assert.Equal(t, 1, manager.Sweep(start.Add(10*time.Minute)))
		assert.True(t, s.IsClosed())
		_, err = manager.Get(s.ID(), learner)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("active session is reaped past deadline plus grace", func(t *testing.T) {
		clock := &testClock{now: start}
		manager := newManager(newSessionFixture().openWindow().attemptsUsed(0), clock)
		defer manager.CloseAll()

		s, err := manager.Open(ctx, 1, learner)
		require.NoError(t, err)
		require.Equal(t, models.SessionActive, s.State())
		deadline := s.Deadline()
		require.Equal(t, start.Add(time.Duration(len(quizDefinition().Questions))*time.Minute), deadline)

		assert.Zero(t, manager.Sweep(deadline.Add(2*time.Minute)))
		assert.Equal(t, 1, manager.Count())

		assert.Equal(t, 1, manager.Sweep(deadline.Add(2*time.Minute+time.Second)))
		assert.Zero(t, manager.Count())
		assert.True(t, s.IsClosed())
	})
}

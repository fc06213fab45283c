package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/judge"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(i int) *int { return &i }

// ===== COLLABORATOR MOCKS =====

type MockScheduleSource struct {
	mock.Mock
}

func (m *MockScheduleSource) GetSchedule(ctx context.Context, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error) {
	args := m.Called(ctx, ownerType, ownerID)
	w, _ := args.Get(0).(*models.ScheduleWindow)
	return w, args.Error(1)
}

type MockDefinitionSource struct {
	mock.Mock
}

func (m *MockDefinitionSource) GetDefinition(ctx context.Context, id uint) (*models.AssessmentDefinition, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.AssessmentDefinition)
	return d, args.Error(1)
}

type MockAttemptCounter struct {
	mock.Mock
}

func (m *MockAttemptCounter) AttemptCount(ctx context.Context, assessmentID uint, learnerID string) (int, error) {
	args := m.Called(ctx, assessmentID, learnerID)
	return args.Int(0), args.Error(1)
}

type MockQuizSubmitter struct {
	mock.Mock
}

func (m *MockQuizSubmitter) SubmitQuiz(ctx context.Context, assessmentID uint, learnerID string, answers models.AnswerPayload) (*models.GradeResult, error) {
	args := m.Called(ctx, assessmentID, learnerID, answers)
	r, _ := args.Get(0).(*models.GradeResult)
	return r, args.Error(1)
}

type MockCodeSubmitter struct {
	mock.Mock
}

func (m *MockCodeSubmitter) SubmitCode(ctx context.Context, exerciseID uint, learnerID, code, language string) (string, error) {
	args := m.Called(ctx, exerciseID, learnerID, code, language)
	return args.String(0), args.Error(1)
}

type MockStatusSource struct {
	mock.Mock
}

func (m *MockStatusSource) SubmissionStatus(ctx context.Context, submissionID string) (*models.SubmissionRecord, error) {
	args := m.Called(ctx, submissionID)
	r, _ := args.Get(0).(*models.SubmissionRecord)
	return r, args.Error(1)
}

type MockJudgeClient struct {
	mock.Mock
}

func (m *MockJudgeClient) Submit(ctx context.Context, req judge.SubmitRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockJudgeClient) Status(ctx context.Context, submissionID string) (*models.SubmissionRecord, error) {
	args := m.Called(ctx, submissionID)
	r, _ := args.Get(0).(*models.SubmissionRecord)
	return r, args.Error(1)
}

// ===== REPOSITORY MOCKS =====

type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	args := m.Called(ctx, tx, assessment)
	return args.Error(0)
}

func (m *MockAssessmentRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	args := m.Called(ctx, tx, id)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}

func (m *MockAssessmentRepository) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	args := m.Called(ctx, tx, assessment)
	return args.Error(0)
}

func (m *MockAssessmentRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) GetByOwner(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) (*models.ScheduleWindow, error) {
	args := m.Called(ctx, tx, ownerType, ownerID)
	w, _ := args.Get(0).(*models.ScheduleWindow)
	return w, args.Error(1)
}

func (m *MockScheduleRepository) Upsert(ctx context.Context, tx *gorm.DB, window *models.ScheduleWindow) error {
	args := m.Called(ctx, tx, window)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, tx *gorm.DB, ownerType models.ScheduleOwnerType, ownerID uint) error {
	args := m.Called(ctx, tx, ownerType, ownerID)
	return args.Error(0)
}

type MockQuizAttemptRepository struct {
	mock.Mock
}

func (m *MockQuizAttemptRepository) CreateWithinLimit(ctx context.Context, attempt *models.QuizAttempt, limit repositories.LimitedCreate) error {
	args := m.Called(ctx, attempt, limit)
	return args.Error(0)
}

func (m *MockQuizAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, id)
	a, _ := args.Get(0).(*models.QuizAttempt)
	return a, args.Error(1)
}

func (m *MockQuizAttemptRepository) ListByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, owner)
	a, _ := args.Get(0).([]*models.QuizAttempt)
	return a, args.Error(1)
}

func (m *MockQuizAttemptRepository) CountByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) (int, error) {
	args := m.Called(ctx, tx, owner)
	return args.Int(0), args.Error(1)
}

type MockCodeSubmissionRepository struct {
	mock.Mock
}

// CreateWithinLimit runs BeforeCreate the way the real repository does, unless the
// configured error says the limit was hit first.
func (m *MockCodeSubmissionRepository) CreateWithinLimit(ctx context.Context, submission *models.CodeSubmission, limit repositories.LimitedCreate) error {
	args := m.Called(ctx, submission, limit)
	if err := args.Error(0); err != nil {
		return err
	}
	if limit.BeforeCreate != nil {
		return limit.BeforeCreate()
	}
	return nil
}

func (m *MockCodeSubmissionRepository) GetByJudgeID(ctx context.Context, tx *gorm.DB, judgeID string) (*models.CodeSubmission, error) {
	args := m.Called(ctx, tx, judgeID)
	s, _ := args.Get(0).(*models.CodeSubmission)
	return s, args.Error(1)
}

func (m *MockCodeSubmissionRepository) UpdateResult(ctx context.Context, tx *gorm.DB, judgeID string, record *models.SubmissionRecord) error {
	args := m.Called(ctx, tx, judgeID, record)
	return args.Error(0)
}

func (m *MockCodeSubmissionRepository) CountByOwner(ctx context.Context, tx *gorm.DB, owner repositories.AttemptOwner) (int, error) {
	args := m.Called(ctx, tx, owner)
	return args.Int(0), args.Error(1)
}

// ===== CACHE FAKE =====

// memoryCache is an in-process CacheService for submission records.
type memoryCache struct {
	values map[string]interface{}
	gets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	if rec, ok := v.(*models.SubmissionRecord); ok {
		*(dest.(*models.SubmissionRecord)) = *rec
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *memoryCache) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	v, err := fn()
	if err != nil {
		return err
	}
	return c.Set(ctx, key, v, ttl)
}

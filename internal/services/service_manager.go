package services

import (
	"log/slog"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/config"
	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
)

// Repositories groups the storage dependencies of the services.
type Repositories struct {
	Assessments     repositories.AssessmentRepository
	Schedules       repositories.ScheduleRepository
	QuizAttempts    repositories.QuizAttemptRepository
	CodeSubmissions repositories.CodeSubmissionRepository
}

// ServiceManager wires the server collaborators into the session engine.
type ServiceManager struct {
	definitions *DefinitionService
	attempts    *AttemptService
	schedules   *ScheduleService
	quizzes     *QuizSubmissionService
	code        *CodeSubmissionService
	gate        *ScheduleGate
	sessions    *SessionManager
	exporter    *ResultExporter
}

func NewServiceManager(
	cfg *config.Config,
	repos Repositories,
	judge JudgeClient,
	caches *cache.CacheManager,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
) *ServiceManager {
	definitions := NewDefinitionService(repos.Assessments, validator, logger)
	attempts := NewAttemptService(definitions, repos.QuizAttempts, repos.CodeSubmissions)
	schedules := NewScheduleService(repos.Schedules, validator, logger)

	var submissionCache cache.CacheService
	if caches != nil {
		submissionCache = caches.Submission
	}
	quizzes := NewQuizSubmissionService(definitions, NewGradingEngine(), repos.QuizAttempts, logger)
	code := NewCodeSubmissionService(definitions, judge, repos.CodeSubmissions, submissionCache, cfg.CacheTTL, logger)

	gate := NewScheduleGate(schedules, cfg.GateFailurePolicy, publisher, logger)
	deps := SessionDeps{
		Gate:          gate,
		Limiter:       NewAttemptLimiter(attempts),
		QuizSubmitter: quizzes,
		CodeSubmitter: code,
		Tracker:       NewAsyncGradingTracker(code, cfg.PollInterval, cfg.PollMaxAttempts, publisher, logger),
		Validator:     validator,
		Publisher:     publisher,
		Logger:        logger,
	}
	sessions := NewSessionManager(definitions, deps, SessionConfig{
		TickInterval:       cfg.TickInterval,
		SecondsPerQuestion: cfg.SecondsPerQuestion,
		Retention:          cfg.SessionRetention,
		DeadlineGrace:      cfg.SessionDeadlineGrace,
		SweepInterval:      cfg.SessionSweepInterval,
	}, logger)

	return &ServiceManager{
		definitions: definitions,
		attempts:    attempts,
		schedules:   schedules,
		quizzes:     quizzes,
		code:        code,
		gate:        gate,
		sessions:    sessions,
		exporter:    NewResultExporter(),
	}
}

func (m *ServiceManager) Definitions() *DefinitionService { return m.definitions }
func (m *ServiceManager) Attempts() *AttemptService       { return m.attempts }
func (m *ServiceManager) Schedules() *ScheduleService     { return m.schedules }
func (m *ServiceManager) Quizzes() *QuizSubmissionService { return m.quizzes }
func (m *ServiceManager) Code() *CodeSubmissionService    { return m.code }
func (m *ServiceManager) Gate() *ScheduleGate             { return m.gate }
func (m *ServiceManager) Sessions() *SessionManager       { return m.sessions }
func (m *ServiceManager) Exporter() *ResultExporter       { return m.exporter }

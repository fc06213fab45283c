package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/events"
	"github.com/SAP-F-2025/assessment-session-service/internal/judge"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
)

const pendingGradeMessage = "Still grading, check back later."

// SessionConfig holds the timing knobs of a session.
type SessionConfig struct {
	TickInterval       time.Duration
	SecondsPerQuestion int
	Now                func() time.Time

	// Retention keeps a settled session (locked, graded or failed) readable before it is
	// evicted; DeadlineGrace bounds how long past its deadline any session may live.
	Retention     time.Duration
	DeadlineGrace time.Duration
	SweepInterval time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.SecondsPerQuestion <= 0 {
		c.SecondsPerQuestion = 60
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Retention <= 0 {
		c.Retention = 30 * time.Minute
	}
	if c.DeadlineGrace <= 0 {
		c.DeadlineGrace = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// SessionDeps are the collaborators a session talks to.
type SessionDeps struct {
	Gate          *ScheduleGate
	Limiter       *AttemptLimiter
	QuizSubmitter QuizSubmitter
	CodeSubmitter CodeSubmitter
	Tracker       *AsyncGradingTracker
	Validator     *validator.Validator
	Publisher     events.EventPublisher
	Logger        *slog.Logger
}

type StateChangeFunc func(from, to models.SessionState)
type GradedFunc func(result *models.SessionResult)

// SessionController runs one timed attempt from INIT to GRADED or a locked state.
// All fields below mu are guarded by it.
type SessionController struct {
	id        string
	def       *models.AssessmentDefinition
	learnerID string
	deps      SessionDeps
	cfg       SessionConfig
	logger    *slog.Logger

	// ctx lives as long as the session; Close cancels it, which stops the ticker and any
	// in-flight submit or poll.
	ctx    context.Context
	cancel context.CancelFunc

	// notifyMu serializes callback delivery so listeners observe transitions in order.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        models.SessionState
	collector    *AnswerCollector
	code         models.CodeDraft
	startedAt    *time.Time
	deadline     *time.Time
	timeLimit    int
	remaining    int
	attemptsUsed int
	lockReason   string
	lastErr      string
	retryable    bool
	submitted    bool
	autoSubmit   bool
	closed       bool
	stopTimer    context.CancelFunc
	frozen       models.AnswerPayload
	frozenCode   models.CodeDraft
	submissionID string
	result       *models.SessionResult
	stateCbs     []StateChangeFunc
	gradedCbs    []GradedFunc
	pending      []func()
}

func NewSessionController(id string, def *models.AssessmentDefinition, learnerID string, deps SessionDeps, cfg SessionConfig) *SessionController {
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionController{
		id:        id,
		def:       def,
		learnerID: learnerID,
		deps:      deps,
		cfg:       cfg.withDefaults(),
		logger:    logger.With("session_id", id, "assessment_id", def.ID, "learner_id", learnerID),
		ctx:       ctx,
		cancel:    cancel,
		state:     models.SessionInit,
		collector: NewAnswerCollector(def.Questions),
	}
}

func (c *SessionController) ID() string        { return c.id }
func (c *SessionController) LearnerID() string { return c.learnerID }

func (c *SessionController) Definition() *models.AssessmentDefinition {
	return c.def
}

func (c *SessionController) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers a listener for every state transition.
func (c *SessionController) OnStateChange(cb StateChangeFunc) {
	c.mu.Lock()
	c.stateCbs = append(c.stateCbs, cb)
	c.mu.Unlock()
}

// OnGraded registers a listener for the terminal result.
func (c *SessionController) OnGraded(cb GradedFunc) {
	c.mu.Lock()
	c.gradedCbs = append(c.gradedCbs, cb)
	c.mu.Unlock()
}

// Deadline is startedAt plus the time limit, or zero before the session is active.
func (c *SessionController) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deadline == nil {
		return time.Time{}
	}
	return *c.deadline
}

// ===== OPENING =====

// Open validates the definition, runs the schedule gate and the attempt check, and either
// locks the session or enters ACTIVE with the countdown armed. Locked outcomes are not
// errors; they are visible through State and Snapshot. A definition that fails validation
// leaves the session in INIT and returns the error.
func (c *SessionController) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state != models.SessionInit {
		c.mu.Unlock()
		return ErrSessionAlreadyOpened
	}
	c.mu.Unlock()

	timeLimit, err := c.validateDefinition()
	if err != nil {
		c.logger.WarnContext(ctx, "Session aborted, invalid definition", "error", err)
		return err
	}

	c.mu.Lock()
	c.timeLimit = timeLimit
	c.transitionLocked(models.SessionCheckingGate)
	c.mu.Unlock()
	c.flush()

	now := c.cfg.Now()
	decision, allowed, used, countErr := c.checkEntry(ctx, now)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.attemptsUsed = used

	switch {
	case decision.Status == AccessError:
		c.lockLocked(models.SessionGateError, decision.Message)
	case decision.Status == AccessNotOpen:
		c.lockLocked(models.SessionLockedNotOpen, decision.Message)
	case decision.Status == AccessClosed:
		c.lockLocked(models.SessionLockedClosed, decision.Message)
	case countErr != nil:
		c.logger.ErrorContext(ctx, "Attempt count lookup failed", "error", countErr)
		c.lockLocked(models.SessionGateError, "Could not verify your remaining attempts. Please try again later.")
	case !allowed:
		c.lockLocked(models.SessionLockedAttempt, fmt.Sprintf("All %d attempts have been used.", c.def.MaxAttempts))
	default:
		c.activateLocked(now)
	}
	state := c.state
	reason := c.lockReason
	c.mu.Unlock()
	c.flush()

	if state.IsLocked() {
		c.logger.InfoContext(ctx, "Session locked", "state", state, "reason", reason)
		c.publish(ctx, events.NewSessionLockedEvent(events.SessionLockedEvent{
			SessionID:    c.id,
			AssessmentID: c.def.ID,
			LearnerID:    c.learnerID,
			State:        string(state),
			Reason:       reason,
		}))
		return nil
	}

	c.logger.InfoContext(ctx, "Session active", "time_limit_seconds", timeLimit, "attempts_used", used)
	c.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		SessionID:        c.id,
		AssessmentID:     c.def.ID,
		LearnerID:        c.learnerID,
		StartedAt:        now,
		TimeLimitSeconds: timeLimit,
		AttemptsUsed:     used,
	}))
	return nil
}

func (c *SessionController) validateDefinition() (int, error) {
	if c.deps.Validator != nil {
		if err := c.deps.Validator.Validate(c.def); err != nil {
			return 0, err
		}
	}
	timeLimit, err := c.def.ResolveTimeLimit(c.cfg.SecondsPerQuestion)
	if err != nil {
		return 0, ValidationErrors{}.Add("time_limit_minutes", err.Error(), c.def.TimeLimitMinutes)
	}
	return timeLimit, nil
}

// checkEntry runs the gate and the attempt count concurrently.
func (c *SessionController) checkEntry(ctx context.Context, now time.Time) (AccessDecision, bool, int, error) {
	var (
		wg       sync.WaitGroup
		decision = AccessDecision{Status: AccessOpen}
		allowed  = true
		used     int
		countErr error
	)

	if c.deps.Gate != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision = c.deps.Gate.CheckDefinition(ctx, c.def, now)
		}()
	}
	if c.deps.Limiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, used, countErr = c.deps.Limiter.Check(ctx, c.def.ID, c.learnerID, c.def.MaxAttempts)
		}()
	}
	wg.Wait()

	return decision, allowed, used, countErr
}

func (c *SessionController) lockLocked(state models.SessionState, reason string) {
	c.lockReason = reason
	c.transitionLocked(state)
}

func (c *SessionController) activateLocked(now time.Time) {
	started := now
	deadline := now.Add(time.Duration(c.timeLimit) * time.Second)
	c.startedAt = &started
	c.deadline = &deadline
	c.remaining = c.timeLimit
	c.transitionLocked(models.SessionActive)

	timerCtx, stop := context.WithCancel(c.ctx)
	c.stopTimer = stop
	go c.runTimer(timerCtx)
}

// ===== COUNTDOWN =====

func (c *SessionController) runTimer(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.tick() {
				continue
			}
			c.logger.InfoContext(ctx, "Time is up, submitting")
			run, err := c.beginSubmit(true)
			if err == nil && run != nil {
				_ = run()
			}
			return
		}
	}
}

// tick decrements the countdown and reports whether it reached zero.
func (c *SessionController) tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.SessionActive {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining == 0
}

// ===== ANSWERS =====

func (c *SessionController) RecordAnswer(questionID string, value models.AnswerValue) error {
	return c.withActive(func() error { return c.collector.Set(questionID, value) })
}

// RecordRawAnswer decodes a wire JSON value by the question's type and records it.
func (c *SessionController) RecordRawAnswer(questionID string, raw json.RawMessage) error {
	return c.withActive(func() error { return c.collector.SetRaw(questionID, raw) })
}

func (c *SessionController) ToggleOption(questionID string, index int) error {
	return c.withActive(func() error { return c.collector.Toggle(questionID, index) })
}

// RecordCode replaces the program draft of a code-exercise session.
func (c *SessionController) RecordCode(code, language string) error {
	if c.def.Kind != models.KindCode {
		return ErrAssessmentWrongKind
	}
	if language != "" && !c.def.AllowsLanguage(language) {
		return ErrLanguageNotAllowed
	}
	return c.withActive(func() error {
		c.code.Code = code
		if language != "" {
			c.code.Language = language
		}
		return nil
	})
}

func (c *SessionController) withActive(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted {
		return ErrAnswersFrozen
	}
	if c.state != models.SessionActive {
		return ErrSessionNotActive
	}
	return fn()
}

// ===== SUBMISSION =====

// ForceSubmit submits the session now. Only the first trigger, manual or timer, submits;
// later ones return nil without effect. It waits for the outcome unless ctx ends first,
// in which case the submission carries on under the session's own context.
func (c *SessionController) ForceSubmit(ctx context.Context) error {
	run, err := c.beginSubmit(false)
	if err != nil || run == nil {
		return err
	}
	return c.await(ctx, run)
}

// Retry resubmits the frozen answers after a retryable submit failure. No timer is armed.
func (c *SessionController) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.state != models.SessionSubmitError || !c.retryable {
		c.mu.Unlock()
		return ErrRetryNotAllowed
	}
	c.lastErr = ""
	c.transitionLocked(models.SessionSubmitting)
	c.mu.Unlock()
	c.flush()

	c.logger.InfoContext(ctx, "Retrying submission")
	return c.await(ctx, func() error { return c.dispatch(c.ctx) })
}

func (c *SessionController) await(ctx context.Context, run func() error) error {
	done := make(chan error, 1)
	go func() { done <- run() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginSubmit sets the submitted flag and freezes the answers under the lock, before any
// I/O. It returns nil, nil when the session was already submitted.
func (c *SessionController) beginSubmit(auto bool) (func() error, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return nil, nil
	}
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if c.state != models.SessionActive {
		c.mu.Unlock()
		return nil, ErrSessionNotActive
	}

	c.submitted = true
	c.autoSubmit = auto
	c.collector.Freeze()
	c.frozen = c.collector.ToSubmissionPayload(c.def.Questions)
	c.frozenCode = c.code
	if c.stopTimer != nil {
		c.stopTimer()
	}
	c.transitionLocked(models.SessionSubmitting)
	c.mu.Unlock()
	c.flush()

	c.publish(c.ctx, events.NewAttemptSubmittedEvent(events.AttemptSubmittedEvent{
		SessionID:    c.id,
		AssessmentID: c.def.ID,
		LearnerID:    c.learnerID,
		SubmittedAt:  c.cfg.Now(),
		AutoSubmit:   auto,
	}))

	return func() error { return c.dispatch(c.ctx) }, nil
}

// dispatch sends the frozen submission and moves the session to GRADED or SUBMIT_ERROR.
func (c *SessionController) dispatch(ctx context.Context) error {
	c.mu.Lock()
	submissionID := c.submissionID
	c.mu.Unlock()

	// Once the judge accepted the code the attempt is already counted; only polling remains.
	if submissionID == "" && c.deps.Limiter != nil {
		allowed, _, err := c.deps.Limiter.Check(ctx, c.def.ID, c.learnerID, c.def.MaxAttempts)
		if err != nil {
			return c.fail(ctx, err)
		}
		if !allowed {
			return c.fail(ctx, ErrAttemptLimitExceeded)
		}
	}

	switch c.def.Kind {
	case models.KindQuiz:
		return c.dispatchQuiz(ctx)
	case models.KindCode:
		return c.dispatchCode(ctx, submissionID)
	default:
		return c.fail(ctx, fmt.Errorf("unsupported assessment kind %q", c.def.Kind))
	}
}

func (c *SessionController) dispatchQuiz(ctx context.Context) error {
	grade, err := c.deps.QuizSubmitter.SubmitQuiz(ctx, c.def.ID, c.learnerID, c.frozen)
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.graded(ctx, &models.SessionResult{Quiz: grade})
}

func (c *SessionController) dispatchCode(ctx context.Context, submissionID string) error {
	if submissionID == "" {
		id, err := c.deps.CodeSubmitter.SubmitCode(ctx, c.def.ID, c.learnerID, c.frozenCode.Code, c.frozenCode.Language)
		if err != nil {
			return c.fail(ctx, err)
		}
		submissionID = id

		c.mu.Lock()
		c.submissionID = id
		c.mu.Unlock()
	}

	record, err := c.deps.Tracker.Poll(ctx, submissionID, 0)
	var timeoutErr *PollTimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		return c.graded(ctx, &models.SessionResult{
			Pending:      true,
			SubmissionID: submissionID,
			Message:      pendingGradeMessage,
		})
	case err != nil:
		return c.fail(ctx, err)
	}
	return c.graded(ctx, &models.SessionResult{Submission: record, SubmissionID: submissionID})
}

func (c *SessionController) graded(ctx context.Context, result *models.SessionResult) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.result = result
	c.lastErr = ""
	c.retryable = false
	c.transitionLocked(models.SessionGraded)
	for _, cb := range c.gradedCbs {
		cb := cb
		c.pending = append(c.pending, func() { cb(result) })
	}
	c.mu.Unlock()
	c.flush()

	data := events.AttemptGradedEvent{
		SessionID:    c.id,
		AssessmentID: c.def.ID,
		LearnerID:    c.learnerID,
		GradedAt:     c.cfg.Now(),
	}
	if result.Quiz != nil {
		data.Correct, data.Total = result.Quiz.Correct, result.Quiz.Total
	}
	if result.Submission != nil {
		data.Status = string(result.Submission.Status)
		data.Score, data.MaxScore = result.Submission.Score, result.Submission.MaxScore
	}
	if result.Pending {
		data.Status = "pending"
	}
	c.publish(ctx, events.NewAttemptGradedEvent(data))

	c.logger.InfoContext(ctx, "Session graded", "pending", result.Pending)
	return nil
}

func (c *SessionController) fail(ctx context.Context, cause error) error {
	if errors.Is(cause, context.Canceled) && c.ctx.Err() != nil {
		// Session closed while submitting; nothing left to report to.
		return ErrSessionClosed
	}

	submitErr := &SubmitError{Retryable: retryable(cause), Err: cause}

	c.mu.Lock()
	c.lastErr = cause.Error()
	c.retryable = submitErr.Retryable
	c.transitionLocked(models.SessionSubmitError)
	c.mu.Unlock()
	c.flush()

	c.logger.WarnContext(ctx, "Submission failed", "error", cause, "retryable", submitErr.Retryable)
	return submitErr
}

// retryable reports whether resubmitting the frozen record may succeed: never after the
// attempt limit, and only for transient judge statuses.
func retryable(cause error) bool {
	if errors.Is(cause, ErrAttemptLimitExceeded) {
		return false
	}
	var statusErr *judge.StatusError
	if errors.As(cause, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

// ===== TEARDOWN =====

// Close cancels the countdown and any in-flight submit or poll. It is idempotent.
func (c *SessionController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug("Session closed")
}

func (c *SessionController) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ===== SNAPSHOT =====

// Snapshot returns a copy of the session for display. Answer keys and hidden tests are
// stripped until the session is graded.
func (c *SessionController) Snapshot() *models.AssessmentSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &models.AssessmentSession{
		SessionID:               c.id,
		DefinitionID:            c.def.ID,
		LearnerID:               c.learnerID,
		Kind:                    c.def.Kind,
		State:                   c.state,
		StartedAt:               copyTimePtr(c.startedAt),
		Deadline:                copyTimePtr(c.deadline),
		RemainingSeconds:        c.remaining,
		TimeLimitSeconds:        c.timeLimit,
		AttemptsUsedBeforeStart: c.attemptsUsed,
		MaxAttempts:             c.def.MaxAttempts,
		LockReason:              c.lockReason,
		LastError:               c.lastErr,
		Retryable:               c.retryable,
		Result:                  c.result,
	}

	if c.submitted {
		snap.Answers = clonePayload(c.frozen)
	} else {
		snap.Answers = c.collector.Answers()
	}
	if c.def.Kind == models.KindCode {
		draft := c.code
		if c.submitted {
			draft = c.frozenCode
		}
		snap.Code = &draft
	}

	if c.state == models.SessionGraded {
		snap.Definition = c.def
	} else {
		snap.Definition = c.def.PublicView()
	}
	return snap
}

// QuizResult returns the graded quiz comparison, if any.
func (c *SessionController) QuizResult() (*models.GradeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil || c.result.Quiz == nil {
		return nil, ErrNoResult
	}
	return c.result.Quiz, nil
}

// ===== INTERNALS =====

// transitionLocked must be called with mu held; listeners run later in flush.
func (c *SessionController) transitionLocked(to models.SessionState) {
	from := c.state
	c.state = to
	for _, cb := range c.stateCbs {
		cb := cb
		c.pending = append(c.pending, func() { cb(from, to) })
	}
}

// flush delivers queued notifications outside mu.
func (c *SessionController) flush() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (c *SessionController) publish(ctx context.Context, event *events.SessionEvent) {
	if c.deps.Publisher == nil {
		return
	}
	if err := c.deps.Publisher.PublishSessionEvent(context.WithoutCancel(ctx), event); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish session event", "event_type", event.Type, "error", err)
	}
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clonePayload(in models.AnswerPayload) models.AnswerPayload {
	out := make(models.AnswerPayload, len(in))
	for id, v := range in {
		out[id] = models.CloneAnswer(v)
	}
	return out
}

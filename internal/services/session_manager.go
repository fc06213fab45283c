package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/google/uuid"
)

// SessionManager keeps the live sessions of this process, keyed by session id. Settled
// sessions stay readable for cfg.Retention; Sweep evicts them afterwards, along with any
// session still registered DeadlineGrace past its deadline.
type SessionManager struct {
	definitions DefinitionSource
	deps        SessionDeps
	cfg         SessionConfig
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*SessionController
	settled  map[string]time.Time
}

func NewSessionManager(definitions DefinitionSource, deps SessionDeps, cfg SessionConfig, logger *slog.Logger) *SessionManager {
	logger = logger.With("component", "session_manager")
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &SessionManager{
		definitions: definitions,
		deps:        deps,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		sessions:    make(map[string]*SessionController),
		settled:     make(map[string]time.Time),
	}
}

// Open loads the definition and opens a new session for learnerID. Locked sessions are
// registered and returned so the learner can see why; an invalid definition is not.
func (m *SessionManager) Open(ctx context.Context, definitionID uint, learnerID string) (*SessionController, error) {
	def, err := m.definitions.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	ctrl := NewSessionController(uuid.NewString(), def, learnerID, m.deps, m.cfg)
	id := ctrl.ID()
	ctrl.OnStateChange(func(from, to models.SessionState) {
		m.logger.Debug("Session state changed", "session_id", id, "from", from, "to", to)
		m.track(id, to)
	})

	m.mu.Lock()
	m.sessions[id] = ctrl
	m.mu.Unlock()

	if err := ctrl.Open(ctx); err != nil {
		m.remove(id)
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

// Get returns the session when it exists and belongs to learnerID.
func (m *SessionManager) Get(sessionID, learnerID string) (*SessionController, error) {
	m.mu.RLock()
	ctrl, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || ctrl.LearnerID() != learnerID {
		return nil, ErrSessionNotFound
	}
	return ctrl, nil
}

// Close tears down one session and forgets it.
func (m *SessionManager) Close(sessionID, learnerID string) error {
	ctrl, err := m.Get(sessionID, learnerID)
	if err != nil {
		return err
	}
	m.remove(sessionID)
	ctrl.Close()
	return nil
}

// CloseAll tears down every session; used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*SessionController)
	m.settled = make(map[string]time.Time)
	m.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Close()
	}
	m.logger.Info("Closed all sessions", "count", len(sessions))
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ===== EVICTION =====

// Sweep evicts sessions settled for at least Retention and sessions alive DeadlineGrace
// past their deadline. It returns how many were removed.
func (m *SessionManager) Sweep(now time.Time) int {
	m.mu.RLock()
	candidates := make(map[string]*SessionController, len(m.sessions))
	settled := make(map[string]time.Time, len(m.settled))
	for id, ctrl := range m.sessions {
		candidates[id] = ctrl
	}
	for id, at := range m.settled {
		settled[id] = at
	}
	m.mu.RUnlock()

	var expired []string
	for id, ctrl := range candidates {
		if at, ok := settled[id]; ok && now.Sub(at) >= m.cfg.Retention {
			expired = append(expired, id)
			continue
		}
		if deadline := ctrl.Deadline(); !deadline.IsZero() && now.After(deadline.Add(m.cfg.DeadlineGrace)) {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		m.remove(id)
		candidates[id].Close()
	}
	if len(expired) > 0 {
		m.logger.Info("Evicted sessions", "count", len(expired), "remaining", m.Count())
	}
	return len(expired)
}

// RunReaper sweeps every SweepInterval until ctx is done.
func (m *SessionManager) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.cfg.Now())
		}
	}
}

// track records when a session settles; a retry from SUBMIT_ERROR makes it live again.
func (m *SessionManager) track(sessionID string, state models.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return
	}
	if state.IsTerminal() || state == models.SessionSubmitError {
		m.settled[sessionID] = m.cfg.Now()
	} else {
		delete(m.settled, sessionID)
	}
}

func (m *SessionManager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	delete(m.settled, sessionID)
	m.mu.Unlock()
}

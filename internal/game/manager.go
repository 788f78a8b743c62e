package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidJudgeToken = errors.New("invalid judge token")
)

// JudgeClaims scope a judge token to one session.
type JudgeClaims struct {
	SessionID string `json:"session_id"`
	JudgeName string `json:"judge_name,omitempty"`
	jwt.RegisteredClaims
}

// ManagerOptions configure session creation.
type ManagerOptions struct {
	JudgeTokenSecret []byte
	JudgeTokenTTL    time.Duration
	Rules            RulesConfig
}

// Manager is the session registry. It creates sessions, issues the
// judge token for each and validates tokens on judge-override routes.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	source QuestionSource
	logger zerolog.Logger
	opts   ManagerOptions
}

// NewManager creates an empty session registry.
func NewManager(source QuestionSource, opts ManagerOptions, logger zerolog.Logger) *Manager {
	if opts.JudgeTokenTTL <= 0 {
		opts.JudgeTokenTTL = 6 * time.Hour
	}
	if opts.Rules == (RulesConfig{}) {
		opts.Rules = DefaultRulesConfig()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		source:   source,
		logger:   logger.With().Str("component", "game_manager").Logger(),
		opts:     opts,
	}
}

// Create registers a new session and returns it with its judge token.
func (m *Manager) Create(judgeName string) (*Session, string, error) {
	id := uuid.New()
	session := NewSession(id, m.source, m.opts.Rules, m.logger)

	token, err := m.issueJudgeToken(id, judgeName)
	if err != nil {
		return nil, "", fmt.Errorf("issue judge token: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Info().Str("session_id", id.String()).Msg("session created")
	return session, token, nil
}

// Get returns the session for an ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close stops a session's timer and removes it from the registry.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Close()
		m.logger.Info().Str("session_id", id.String()).Msg("session closed")
	}
}

// ReapIdle closes sessions untouched for longer than maxIdle. onClose,
// when set, runs for each reaped session after removal so transports
// can drop their watchers.
func (m *Manager) ReapIdle(maxIdle time.Duration, onClose func(uuid.UUID)) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)

	m.mu.RLock()
	var stale []uuid.UUID
	for id, session := range m.sessions {
		if session.LastTouched().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Close(id)
		if onClose != nil {
			onClose(id)
		}
	}
	if len(stale) > 0 {
		m.logger.Info().Int("count", len(stale)).Msg("idle sessions reaped")
	}
	return len(stale)
}

// RunReaper periodically reaps idle sessions until the context ends.
func (m *Manager) RunReaper(ctx context.Context, interval, maxIdle time.Duration, onClose func(uuid.UUID)) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReapIdle(maxIdle, onClose)
		}
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) issueJudgeToken(sessionID uuid.UUID, judgeName string) (string, error) {
	now := time.Now()
	claims := JudgeClaims{
		SessionID: sessionID.String(),
		JudgeName: judgeName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "quiz-arena",
			Subject:   "judge",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.opts.JudgeTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.opts.JudgeTokenSecret)
}

// VerifyJudgeToken checks that the token is valid and scoped to the
// given session.
func (m *Manager) VerifyJudgeToken(tokenString string, sessionID uuid.UUID) error {
	claims := &JudgeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.opts.JudgeTokenSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidJudgeToken
	}
	if claims.SessionID != sessionID.String() {
		return ErrInvalidJudgeToken
	}
	return nil
}

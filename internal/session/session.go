// Package session keeps the admin's upstream access token server-side.
// A session is created by Login, destroyed by Logout, and invalidated when the
// upstream rejects its token. Callers read the token at call time through Token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MsgMissingFields = "Por favor, completa todos los campos."

var (
	ErrNotFound      = errors.New("session not found")
	ErrMissingFields = errors.New(MsgMissingFields)
)

type Session struct {
	ID        string       `json:"id"`
	Token     string       `json:"token"`
	User      *domain.User `json:"user,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Store persists sessions. GetSession returns ErrNotFound for unknown or expired ids.
type Store interface {
	SaveSession(ctx context.Context, s *Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
}

type SessionUseCase interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Token(ctx context.Context, id string) (string, error)
	Logout(ctx context.Context, id string) error
	Invalidate(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	auth   Authenticator
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

type ManagerOption func(*Manager)

func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(store Store, auth Authenticator, ttl time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		auth:   auth,
		ttl:    ttl,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	ttl := m.ttl
	if exp, ok := tokenExpiry(res.Token); ok {
		if until := exp.Sub(now); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return nil, &apiclient.APIError{Operation: "login", Status: 401, Message: apiclient.MsgLoginFailed}
	}

	s := &Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		User:      res.User,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.store.SaveSession(ctx, s, ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Info("admin session created", zap.String("session_id", s.ID))
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return m.store.GetSession(ctx, id)
}

// Token reads the session's upstream token. It is never cached by callers.
func (m *Manager) Token(ctx context.Context, id string) (string, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info("admin session closed", zap.String("session_id", id))
	return nil
}

// Invalidate drops a session whose token the upstream refused.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	m.logger.Warn("admin session invalidated by upstream", zap.String("session_id", id))
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// upstream issues and verifies the token, this only bounds the session TTL.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

var _ SessionUseCase = (*Manager)(nil)

// Package auth registers accounts, opens sessions and resolves session
// tokens back to users.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/pkg/store"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "murmurations_tools_session"

// SessionTTL is how long a session stays valid after creation.
const SessionTTL = 7 * 24 * time.Hour

var (
	ErrMissingFields      = errors.New("auth: missing required fields")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidSession     = errors.New("auth: invalid or expired session")
)

// EmailHash returns the hex sha256 of the email; raw addresses are never stored.
func EmailHash(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// Option customises a Service.
type Option func(*Service)

// WithSigner overrides the password signer.
func WithSigner(signer Signer) Option {
	return func(s *Service) {
		if signer != nil {
			s.signer = signer
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionTTL overrides SessionTTL. Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// Service implements the login flows on top of the user and session stores.
type Service struct {
	users    store.UserStore
	sessions store.SessionStore
	signer   Signer
	now      func() time.Time
	ttl      time.Duration
	logger   *zap.Logger
}

// New constructs a Service.
func New(users store.UserStore, sessions store.SessionStore, options ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		signer:   &Bcrypt{Cost: DefaultCost},
		now:      time.Now,
		ttl:      SessionTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// TTL reports the session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Register creates an account and opens its first session.
func (s *Service) Register(ctx context.Context, email, password string) (store.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return store.Session{}, ErrMissingFields
	}
	hash := EmailHash(email)
	if _, err := s.users.UserByEmailHash(ctx, hash); err == nil {
		return store.Session{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	signed, err := s.signer.Sign(password)
	if err != nil {
		return store.Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := store.User{
		ID:           uuid.NewString(),
		EmailHash:    hash,
		PasswordHash: signed,
		LastLogin:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return store.Session{}, ErrUserExists
		}
		return store.Session{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user", user.ID))
	return s.openSession(ctx, hash)
}

// Login checks the password and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string) (store.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return store.Session{}, ErrMissingFields
	}
	hash := EmailHash(email)
	user, err := s.users.UserByEmailHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return store.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := s.signer.Verify(user.PasswordHash, password); err != nil {
		return store.Session{}, ErrInvalidCredentials
	}
	if err := s.users.TouchLogin(ctx, hash, s.now()); err != nil {
		return store.Session{}, fmt.Errorf("record login: %w", err)
	}
	return s.openSession(ctx, hash)
}

// Logout ends the session. Empty and unknown tokens are not errors.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	session, err := s.sessions.SessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if s.now().Sub(session.CreatedAt) > s.ttl {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to drop expired session", zap.Error(err))
		}
		return nil, ErrInvalidSession
	}
	user, err := s.users.UserByEmailHash(ctx, session.EmailHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session user: %w", err)
	}
	return &user, nil
}

func (s *Service) openSession(ctx context.Context, emailHash string) (store.Session, error) {
	session := store.Session{
		Token:     uuid.NewString(),
		EmailHash: emailHash,
		CreatedAt: s.now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return store.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

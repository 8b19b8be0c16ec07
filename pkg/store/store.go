// Package store defines the persistence contracts for users, sessions and
// saved profiles. Backends live under internal/store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a missing record, or one owned by another user.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict reports a uniqueness violation.
	ErrConflict = errors.New("store: conflict")
)

// User is a registered account. Users are identified by the SHA-256 of their
// email; the address itself is never stored.
type User struct {
	ID           string    `json:"cuid"`
	EmailHash    string    `json:"email_hash"`
	PasswordHash string    `json:"-"`
	LastLogin    time.Time `json:"last_login"`
	// Profiles lists the CUIDs of the user's saved profiles.
	Profiles []string `json:"profiles"`
}

// Session binds an opaque token to a user.
type Session struct {
	Token     string
	EmailHash string
	CreatedAt time.Time
}

// Profile is a saved profile document plus its bookkeeping.
type Profile struct {
	CUID          string          `json:"cuid"`
	UserID        string          `json:"-"`
	Title         string          `json:"title"`
	LinkedSchemas []string        `json:"linked_schemas"`
	Document      json.RawMessage `json:"profile"`
	NodeID        string          `json:"node_id"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// ProfileStore persists profiles. Lookups scoped by userID report
// ErrNotFound for profiles owned by someone else.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID, cuid string) (Profile, error)
	// PublicProfile returns a profile regardless of owner; profile
	// documents are public so the Index can fetch them.
	PublicProfile(ctx context.Context, cuid string) (Profile, error)
	// SaveProfile inserts p or replaces the caller's existing profile with
	// the same CUID. A CUID owned by another user yields ErrConflict.
	SaveProfile(ctx context.Context, userID string, p Profile) error
	DeleteProfile(ctx context.Context, userID, cuid string) error
	ListUserProfiles(ctx context.Context, userID string) ([]Profile, error)
	SetNodeID(ctx context.Context, cuid, nodeID string) error
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser yields ErrConflict when the email hash is taken.
	CreateUser(ctx context.Context, u User) error
	UserByEmailHash(ctx context.Context, emailHash string) (User, error)
	TouchLogin(ctx context.Context, emailHash string, at time.Time) error
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	SessionByToken(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a complete backend.
type Store interface {
	ProfileStore
	UserStore
	SessionStore
	Pinger
	Close() error
}

// Package sqlite provides a SQLite-backed, row-oriented implementation of the
// store contracts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/murmurations/go-murmurations/internal/store/sqlite/migrations"
	"github.com/murmurations/go-murmurations/pkg/store"
)

// Store persists users, sessions and profiles in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite has a single writer; one connection keeps read-then-write
	// transactions from failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return errors.New("sqlite: storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// CreateUser inserts one account.
func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.EmailHash) == "" {
		return errors.New("sqlite: user id and email hash are required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (cuid, email_hash, password, last_login) VALUES (?, ?, ?, ?)`,
		u.ID, u.EmailHash, u.PasswordHash, toMillis(u.LastLogin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmailHash loads an account and the CUIDs of its profiles.
func (s *Store) UserByEmailHash(ctx context.Context, emailHash string) (store.User, error) {
	var (
		u         store.User
		lastLogin int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT cuid, email_hash, password, last_login FROM users WHERE email_hash = ?`,
		emailHash,
	).Scan(&u.ID, &u.EmailHash, &u.PasswordHash, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("get user: %w", err)
	}
	u.LastLogin = fromMillis(lastLogin)

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT cuid FROM profiles WHERE user_id = ? ORDER BY id`, u.ID)
	if err != nil {
		return store.User{}, fmt.Errorf("list user profile ids: %w", err)
	}
	defer rows.Close()
	u.Profiles = []string{}
	for rows.Next() {
		var cuid string
		if err := rows.Scan(&cuid); err != nil {
			return store.User{}, fmt.Errorf("scan profile id: %w", err)
		}
		u.Profiles = append(u.Profiles, cuid)
	}
	if err := rows.Err(); err != nil {
		return store.User{}, fmt.Errorf("iterate profile ids: %w", err)
	}
	return u, nil
}

// TouchLogin records a successful login.
func (s *Store) TouchLogin(ctx context.Context, emailHash string, at time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE email_hash = ?`, toMillis(at), emailHash)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return expectRow(result)
}

// CreateSession inserts one session.
func (s *Store) CreateSession(ctx context.Context, session store.Session) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (session_token, email_hash, created_at) VALUES (?, ?, ?)`,
		session.Token, session.EmailHash, toMillis(session.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionByToken loads one session.
func (s *Store) SessionByToken(ctx context.Context, token string) (store.Session, error) {
	var (
		session   store.Session
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT session_token, email_hash, created_at FROM sessions WHERE session_token = ?`, token,
	).Scan(&session.Token, &session.EmailHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	return session, nil
}

// DeleteSession removes a session; unknown tokens are ignored.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

const profileColumns = `cuid, user_id, title, linked_schemas, node_id, profile, last_updated`

// GetProfile loads one of the user's profiles.
func (s *Store) GetProfile(ctx context.Context, userID, cuid string) (store.Profile, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE cuid = ? AND user_id = ?`, cuid, userID)
	return scanProfile(row)
}

// PublicProfile loads a profile regardless of owner.
func (s *Store) PublicProfile(ctx context.Context, cuid string) (store.Profile, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE cuid = ?`, cuid)
	return scanProfile(row)
}

// SaveProfile inserts a profile or updates the caller's existing one.
func (s *Store) SaveProfile(ctx context.Context, userID string, p store.Profile) error {
	if strings.TrimSpace(p.CUID) == "" {
		return errors.New("sqlite: profile cuid is required")
	}
	linked, err := json.Marshal(nonNil(p.LinkedSchemas))
	if err != nil {
		return fmt.Errorf("encode linked schemas: %w", err)
	}
	document := string(p.Document)
	if strings.TrimSpace(document) == "" {
		document = "{}"
	}
	lastUpdated := p.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save profile: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE cuid = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM profiles WHERE cuid = ?`, p.CUID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.CUID, userID, p.Title, string(linked), p.NodeID, document, toMillis(lastUpdated),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrConflict
			}
			return fmt.Errorf("insert profile: %w", err)
		}
	case err != nil:
		return fmt.Errorf("check profile owner: %w", err)
	case owner != userID:
		return store.ErrConflict
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE profiles SET title = ?, linked_schemas = ?, node_id = ?, profile = ?, last_updated = ?
			 WHERE cuid = ? AND user_id = ?`,
			p.Title, string(linked), p.NodeID, document, toMillis(lastUpdated), p.CUID, userID,
		)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save profile: %w", err)
	}
	return nil
}

// DeleteProfile removes one of the user's profiles.
func (s *Store) DeleteProfile(ctx context.Context, userID, cuid string) error {
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM profiles WHERE cuid = ? AND user_id = ?`, cuid, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return expectRow(result)
}

// ListUserProfiles returns the user's profiles in creation order.
func (s *Store) ListUserProfiles(ctx context.Context, userID string) ([]store.Profile, error) {
	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE cuid = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []store.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// SetNodeID records the Index node id assigned to a profile.
func (s *Store) SetNodeID(ctx context.Context, cuid, nodeID string) error {
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE profiles SET node_id = ? WHERE cuid = ?`, nodeID, cuid)
	if err != nil {
		return fmt.Errorf("set node id: %w", err)
	}
	return expectRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (store.Profile, error) {
	var (
		p           store.Profile
		linked      string
		document    string
		lastUpdated int64
	)
	err := row.Scan(&p.CUID, &p.UserID, &p.Title, &linked, &p.NodeID, &document, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return store.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	if err := json.Unmarshal([]byte(linked), &p.LinkedSchemas); err != nil {
		p.LinkedSchemas = []string{}
	}
	p.Document = json.RawMessage(document)
	p.LastUpdated = fromMillis(lastUpdated)
	return p, nil
}

func expectRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

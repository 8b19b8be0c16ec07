// Package memory is a document-oriented store kept in process memory: users
// carry the list of their profile CUIDs, as in the hosted deployment's
// document database.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/murmurations/go-murmurations/pkg/store"
)

// Store implements store.Store. The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	users    map[string]store.User // by email hash
	sessions map[string]store.Session
	profiles map[string]store.Profile // by cuid
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]store.User),
		sessions: make(map[string]store.Session),
		profiles: make(map[string]store.Profile),
	}
}

// Ping always succeeds while the context is live.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.EmailHash]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.users {
		if existing.ID == u.ID {
			return store.ErrConflict
		}
	}
	u.Profiles = append([]string{}, u.Profiles...)
	s.users[u.EmailHash] = u
	return nil
}

func (s *Store) UserByEmailHash(ctx context.Context, emailHash string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[emailHash]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) TouchLogin(ctx context.Context, emailHash string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailHash]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = at.UTC()
	s.users[emailHash] = u
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session store.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; ok {
		return store.ErrConflict
	}
	s.sessions[session.Token] = session
	return nil
}

func (s *Store) SessionByToken(ctx context.Context, token string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID, cuid string) (store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return store.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[cuid]
	if !ok || p.UserID != userID {
		return store.Profile{}, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) PublicProfile(ctx context.Context, cuid string) (store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return store.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[cuid]
	if !ok {
		return store.Profile{}, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, p store.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.ownerHash(userID)
	if !ok {
		return store.ErrNotFound
	}
	if existing, ok := s.profiles[p.CUID]; ok && existing.UserID != userID {
		return store.ErrConflict
	}

	p = cloneProfile(p)
	p.UserID = userID
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now().UTC()
	}
	s.profiles[p.CUID] = p

	owner := s.users[hash]
	if !slices.Contains(owner.Profiles, p.CUID) {
		owner.Profiles = append(owner.Profiles, p.CUID)
		s.users[hash] = owner
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, userID, cuid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[cuid]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.profiles, cuid)
	if hash, ok := s.ownerHash(userID); ok {
		owner := s.users[hash]
		owner.Profiles = slices.DeleteFunc(owner.Profiles, func(id string) bool { return id == cuid })
		s.users[hash] = owner
	}
	return nil
}

func (s *Store) ListUserProfiles(ctx context.Context, userID string) ([]store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.ownerHash(userID)
	if !ok {
		return nil, store.ErrNotFound
	}
	owner := s.users[hash]
	out := make([]store.Profile, 0, len(owner.Profiles))
	for _, cuid := range owner.Profiles {
		if p, ok := s.profiles[cuid]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

func (s *Store) SetNodeID(ctx context.Context, cuid, nodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[cuid]
	if !ok {
		return store.ErrNotFound
	}
	p.NodeID = nodeID
	s.profiles[cuid] = p
	return nil
}

// ownerHash finds the email hash of the user with the given id. Callers hold
// the lock.
func (s *Store) ownerHash(userID string) (string, bool) {
	for hash, u := range s.users {
		if u.ID == userID {
			return hash, true
		}
	}
	return "", false
}

func cloneUser(u store.User) store.User {
	u.Profiles = append([]string{}, u.Profiles...)
	return u
}

func cloneProfile(p store.Profile) store.Profile {
	p.LinkedSchemas = append([]string{}, p.LinkedSchemas...)
	p.Document = append(json.RawMessage(nil), p.Document...)
	return p
}

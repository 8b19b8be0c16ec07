// Package storetest is a conformance suite every store backend runs.
package storetest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurations/go-murmurations/pkg/store"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run exercises a backend against the store contracts.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("ProfileOwnership", func(t *testing.T) { testOwnership(t, newStore(t)) })
	t.Run("ConcurrentSaves", func(t *testing.T) { testConcurrentSaves(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// NewUser builds a user fixture.
func NewUser(id string) store.User {
	return store.User{
		ID:           id,
		EmailHash:    "hash-" + id,
		PasswordHash: "$2a$10$fixture",
		LastLogin:    epoch,
	}
}

// NewProfile builds a profile fixture.
func NewProfile(cuid, title string) store.Profile {
	return store.Profile{
		CUID:          cuid,
		Title:         title,
		LinkedSchemas: []string{"organizations_schema-v1.0.0"},
		Document:      json.RawMessage(`{"linked_schemas":["organizations_schema-v1.0.0"],"name":"` + title + `"}`),
		LastUpdated:   epoch,
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	user := NewUser("u1")

	require.NoError(t, s.CreateUser(ctx, user))
	assert.ErrorIs(t, s.CreateUser(ctx, user), store.ErrConflict)

	got, err := s.UserByEmailHash(ctx, user.EmailHash)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.True(t, got.LastLogin.Equal(epoch))
	assert.Empty(t, got.Profiles)

	later := epoch.Add(time.Hour)
	require.NoError(t, s.TouchLogin(ctx, user.EmailHash, later))
	got, err = s.UserByEmailHash(ctx, user.EmailHash)
	require.NoError(t, err)
	assert.True(t, got.LastLogin.Equal(later), "last login %v", got.LastLogin)

	_, err = s.UserByEmailHash(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.TouchLogin(ctx, "missing", later), store.ErrNotFound)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	session := store.Session{Token: "tok-1", EmailHash: "hash-u1", CreatedAt: epoch}

	require.NoError(t, s.CreateSession(ctx, session))
	got, err := s.SessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-u1", got.EmailHash)
	assert.True(t, got.CreatedAt.Equal(epoch))

	require.NoError(t, s.DeleteSession(ctx, "tok-1"))
	_, err = s.SessionByToken(ctx, "tok-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, s.DeleteSession(ctx, "tok-1"), "deleting twice is not an error")
}

func testProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1")))

	first := NewProfile("p1", "First")
	second := NewProfile("p2", "Second")
	require.NoError(t, s.SaveProfile(ctx, "u1", first))
	require.NoError(t, s.SaveProfile(ctx, "u1", second))

	got, err := s.GetProfile(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, []string{"organizations_schema-v1.0.0"}, got.LinkedSchemas)
	assert.JSONEq(t, string(first.Document), string(got.Document))
	assert.True(t, got.LastUpdated.Equal(epoch))

	user, err := s.UserByEmailHash(ctx, "hash-u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, user.Profiles)

	updated := NewProfile("p1", "Renamed")
	updated.LastUpdated = epoch.Add(time.Minute)
	require.NoError(t, s.SaveProfile(ctx, "u1", updated))
	got, err = s.GetProfile(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	list, err := s.ListUserProfiles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].CUID)
	assert.Equal(t, "p2", list[1].CUID)

	require.NoError(t, s.SetNodeID(ctx, "p2", "node-2"))
	public, err := s.PublicProfile(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "node-2", public.NodeID)
	assert.ErrorIs(t, s.SetNodeID(ctx, "missing", "node"), store.ErrNotFound)

	require.NoError(t, s.DeleteProfile(ctx, "u1", "p1"))
	_, err = s.GetProfile(ctx, "u1", "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.PublicProfile(ctx, "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProfile(ctx, "u1", "p1"), store.ErrNotFound)

	user, err = s.UserByEmailHash(ctx, "hash-u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, user.Profiles)
}

func testOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("alice")))
	require.NoError(t, s.CreateUser(ctx, NewUser("bob")))
	require.NoError(t, s.SaveProfile(ctx, "alice", NewProfile("shared", "Alice's")))

	_, err := s.GetProfile(ctx, "bob", "shared")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProfile(ctx, "bob", "shared"), store.ErrNotFound)
	assert.ErrorIs(t, s.SaveProfile(ctx, "bob", NewProfile("shared", "Bob's")), store.ErrConflict)
	assert.ErrorIs(t, s.SaveProfile(ctx, "nobody", NewProfile("orphan", "x")), store.ErrNotFound)

	list, err := s.ListUserProfiles(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := s.GetProfile(ctx, "alice", "shared")
	require.NoError(t, err)
	assert.Equal(t, "Alice's", got.Title)
}

func testConcurrentSaves(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("u1")))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cuid := string(rune('a' + i))
			errs <- s.SaveProfile(ctx, "u1", NewProfile(cuid, cuid))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := s.ListUserProfiles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurations/go-murmurations/pkg/store"
	"github.com/murmurations/go-murmurations/pkg/store/storetest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tools.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTempStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenIsRepeatable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tools.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.CreateUser(ctx, storetest.NewUser("u1")))
	require.NoError(t, first.SaveProfile(ctx, "u1", storetest.NewProfile("p1", "First")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.PublicProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
}

func TestSaveProfileDefaultsEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	require.NoError(t, s.CreateUser(ctx, storetest.NewUser("u1")))

	p := storetest.NewProfile("p1", "Empty")
	p.Document = nil
	p.LinkedSchemas = nil
	require.NoError(t, s.SaveProfile(ctx, "u1", p))

	got, err := s.GetProfile(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.Document))
	assert.Equal(t, []string{}, got.LinkedSchemas)
}

func TestUniqueViolationDetection(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	require.NoError(t, s.CreateSession(ctx, store.Session{Token: "t", EmailHash: "h"}))
	err := s.CreateSession(ctx, store.Session{Token: "t", EmailHash: "h"})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.False(t, isUniqueViolation(nil))
}

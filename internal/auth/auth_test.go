package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/murmurations/go-murmurations/internal/auth"
	"github.com/murmurations/go-murmurations/internal/store/memory"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newService(t *testing.T) (*auth.Service, *memory.Store, *clock) {
	t.Helper()
	backend := memory.New()
	c := &clock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	svc := auth.New(backend, backend,
		auth.WithSigner(&auth.Bcrypt{Cost: bcrypt.MinCost}),
		auth.WithClock(c.Now),
	)
	return svc, backend, c
}

func TestEmailHash(t *testing.T) {
	assert.Equal(t, "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b", auth.EmailHash("test@example.com"))
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, backend, c := newService(t)

	session, err := svc.Register(ctx, "ada@example.org", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, auth.EmailHash("ada@example.org"), session.EmailHash)

	user, err := backend.UserByEmailHash(ctx, session.EmailHash)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", user.PasswordHash)

	_, err = svc.Register(ctx, "ada@example.org", "other")
	assert.ErrorIs(t, err, auth.ErrUserExists)

	c.now = c.now.Add(time.Hour)
	second, err := svc.Login(ctx, "ada@example.org", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, second.Token)

	user, err = backend.UserByEmailHash(ctx, session.EmailHash)
	require.NoError(t, err)
	assert.True(t, user.LastLogin.Equal(c.now))

	_, err = svc.Login(ctx, "ada@example.org", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.org", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestMissingFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Register(ctx, " ", "x")
	assert.ErrorIs(t, err, auth.ErrMissingFields)
	_, err = svc.Login(ctx, "a@b.c", "")
	assert.ErrorIs(t, err, auth.ErrMissingFields)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, backend, c := newService(t)

	session, err := svc.Register(ctx, "ada@example.org", "secret")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.EmailHash, user.EmailHash)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
	_, err = svc.Authenticate(ctx, "unknown")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)

	c.now = c.now.Add(auth.SessionTTL + time.Second)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
	_, err = backend.SessionByToken(ctx, session.Token)
	assert.Error(t, err, "expired session should be removed")
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	session, err := svc.Register(ctx, "ada@example.org", "secret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session.Token))
	require.NoError(t, svc.Logout(ctx, session.Token))
	require.NoError(t, svc.Logout(ctx, ""))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestBcryptDefaultCost(t *testing.T) {
	signer := &auth.Bcrypt{}
	token, err := signer.Sign("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(token))
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultCost, cost)
	assert.NoError(t, signer.Verify(token, "pw"))
	assert.Error(t, signer.Verify(token, "nope"))
}

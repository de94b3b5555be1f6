package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/session"
	"github.com/aspectstore/storekit/pkg/validator"
)

func newLocalManager(t *testing.T, kv kvstore.Store) *session.Manager {
	t.Helper()
	mgr := session.New(session.Config{Mode: "local"}, session.WithStore(kv))
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestLocalSignup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates an authenticated account", func(t *testing.T) {
		t.Parallel()
		mgr := newLocalManager(t, kvstore.NewMemoryStore())

		user, err := mgr.Signup(ctx, session.SignupDetails{
			Name:     "Ada Lovelace",
			Email:    "ada@example.com",
			Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, user.Picture)

		sess := mgr.Session(ctx)
		assert.True(t, sess.IsAuthenticated)
		require.NotNil(t, sess.User)
		assert.Equal(t, "ada@example.com", sess.User.Email)
	})

	t.Run("defaults name to the email local part", func(t *testing.T) {
		t.Parallel()
		mgr := newLocalManager(t, kvstore.NewMemoryStore())

		user, err := mgr.Signup(ctx, session.SignupDetails{
			Email:    "grace@example.com",
			Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "grace", user.Name)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		mgr := newLocalManager(t, kvstore.NewMemoryStore())

		_, err := mgr.Signup(ctx, session.SignupDetails{Email: "not-an-email", Password: "secret1"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		_, err = mgr.Signup(ctx, session.SignupDetails{Email: "ok@example.com", Password: "short"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})

	t.Run("second signup replaces the stored account", func(t *testing.T) {
		t.Parallel()
		mgr := newLocalManager(t, kvstore.NewMemoryStore())

		_, err := mgr.Signup(ctx, session.SignupDetails{Email: "first@example.com", Password: "secret1"})
		require.NoError(t, err)
		_, err = mgr.Signup(ctx, session.SignupDetails{Email: "second@example.com", Password: "secret2"})
		require.NoError(t, err)

		_, err = mgr.Login(ctx, session.Credentials{Email: "first@example.com", Password: "secret1"})
		require.ErrorIs(t, err, session.ErrInvalidCredentials)

		user, err := mgr.Login(ctx, session.Credentials{Email: "second@example.com", Password: "secret2"})
		require.NoError(t, err)
		assert.Equal(t, "second@example.com", user.Email)
	})
}

func TestLocalLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) *session.Manager {
		t.Helper()
		mgr := newLocalManager(t, kvstore.NewMemoryStore())
		_, err := mgr.Signup(ctx, session.SignupDetails{
			Email:    "ada@example.com",
			Password: "secret1",
		})
		require.NoError(t, err)
		return mgr
	}

	t.Run("exact match succeeds", func(t *testing.T) {
		t.Parallel()
		mgr := setup(t)

		user, err := mgr.Login(ctx, session.Credentials{
			Email:    "  ada@example.com  ", // whitespace is trimmed
			Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.True(t, mgr.Session(ctx).IsAuthenticated)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		t.Parallel()
		mgr := setup(t)

		_, err := mgr.Login(ctx, session.Credentials{Email: "ada@example.com", Password: "Secret1"})
		require.ErrorIs(t, err, session.ErrInvalidCredentials)
	})

	t.Run("unknown email fails", func(t *testing.T) {
		t.Parallel()
		mgr := setup(t)

		_, err := mgr.Login(ctx, session.Credentials{Email: "other@example.com", Password: "secret1"})
		require.ErrorIs(t, err, session.ErrInvalidCredentials)
	})

	t.Run("logout removes the account record", func(t *testing.T) {
		t.Parallel()
		mgr := setup(t)
		require.NoError(t, mgr.Logout(ctx))

		// Single-account model: the record is the session, so logging out
		// forgets the account and a fresh signup is required.
		_, err := mgr.Login(ctx, session.Credentials{Email: "ada@example.com", Password: "secret1"})
		require.ErrorIs(t, err, session.ErrInvalidCredentials)
	})
}

func TestLocalResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mgr := newLocalManager(t, kvstore.NewMemoryStore())
	_, err := mgr.Signup(ctx, session.SignupDetails{
		Email:    "ada@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	require.NoError(t, mgr.ResetPassword(ctx, "ada@example.com"))
	require.ErrorIs(t, mgr.ResetPassword(ctx, "stranger@example.com"), session.ErrUnknownAccount)
}

func TestLocalCorruptStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv := kvstore.NewMemoryStore()
	// Whatever garbage a previous run left behind must read as signed out.
	require.NoError(t, kv.Set(ctx, "auth_user", []byte("{not json")))

	mgr := newLocalManager(t, kv)

	sess := mgr.Session(ctx)
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)

	_, err := mgr.Login(ctx, session.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestLocalLogoutClearsAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv := kvstore.NewMemoryStore()
	mgr := newLocalManager(t, kv)

	_, err := mgr.Signup(ctx, session.SignupDetails{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, mgr.Logout(ctx))

	assert.False(t, mgr.Session(ctx).IsAuthenticated)
	_, err = kv.Get(ctx, "auth_user")
	require.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

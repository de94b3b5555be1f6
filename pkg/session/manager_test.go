package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/session"
)

func TestNewModeSelection(t *testing.T) {
	t.Parallel()

	t.Run("unknown mode falls back to local", func(t *testing.T) {
		t.Parallel()
		mgr := session.New(session.Config{Mode: "banana"})
		t.Cleanup(func() { _ = mgr.Close() })

		// Local mode accepts signups; the unknown value must not panic or
		// disable auth.
		user, err := mgr.Signup(context.Background(), session.SignupDetails{
			Email:    "fallback@example.com",
			Password: "secret1",
		})
		require.NoError(t, err)
		require.NotNil(t, user)
	})

	t.Run("mode is case-insensitive and trimmed", func(t *testing.T) {
		t.Parallel()
		mgr := session.New(session.Config{Mode: "  NONE "})
		t.Cleanup(func() { _ = mgr.Close() })

		_, err := mgr.Login(context.Background(), session.Credentials{
			Email:    "a@b.com",
			Password: "x",
		})
		require.ErrorIs(t, err, session.ErrAuthDisabled)
	})
}

func TestNoopMode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mgr := session.New(session.Config{Mode: "none"})
	t.Cleanup(func() { _ = mgr.Close() })

	t.Run("operations report auth disabled", func(t *testing.T) {
		_, err := mgr.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x"})
		assert.ErrorIs(t, err, session.ErrAuthDisabled)

		_, err = mgr.Signup(ctx, session.SignupDetails{Email: "a@b.com", Password: "secret1"})
		assert.ErrorIs(t, err, session.ErrAuthDisabled)

		assert.ErrorIs(t, mgr.ResetPassword(ctx, "a@b.com"), session.ErrAuthDisabled)
	})

	t.Run("session stays unauthenticated and logout succeeds", func(t *testing.T) {
		require.NoError(t, mgr.Logout(ctx))

		sess := mgr.Session(ctx)
		assert.False(t, sess.IsAuthenticated)
		assert.Nil(t, sess.User)
	})
}

func TestChangeHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type observed struct {
		hook string
		user *identity.User
	}
	var events []observed
	record := func(name string) session.ChangeHook {
		return func(_ context.Context, user *identity.User) {
			events = append(events, observed{hook: name, user: user})
		}
	}

	mgr := session.New(session.Config{Mode: "local"},
		session.WithStore(kvstore.NewMemoryStore()),
		session.WithAfterChange(record("first")),
		session.WithAfterChange(record("second")),
	)
	t.Cleanup(func() { _ = mgr.Close() })

	_, err := mgr.Signup(ctx, session.SignupDetails{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Logout(ctx))

	// Two transitions, two hooks each, in registration order.
	require.Len(t, events, 4)
	assert.Equal(t, "first", events[0].hook)
	assert.Equal(t, "second", events[1].hook)
	require.NotNil(t, events[0].user)
	assert.Equal(t, "ada@example.com", events[0].user.Email)
	assert.Nil(t, events[2].user, "logout must be observed as no user")
	assert.Nil(t, events[3].user)
}

func TestHooksNotFiredOnFailure(t *testing.T) {
	t.Parallel()

	var fired int
	mgr := session.New(session.Config{Mode: "local"},
		session.WithAfterChange(func(context.Context, *identity.User) { fired++ }),
	)
	t.Cleanup(func() { _ = mgr.Close() })

	_, err := mgr.Login(context.Background(), session.Credentials{
		Email:    "nobody@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Zero(t, fired)
}

func TestHandleCallbackUnsupported(t *testing.T) {
	t.Parallel()

	mgr := session.New(session.Config{Mode: "local"})
	t.Cleanup(func() { _ = mgr.Close() })

	_, err := mgr.HandleCallback(context.Background(), "code", "state")
	require.ErrorIs(t, err, session.ErrCallbackNotSupported)
}

func TestAuthorizedPostRequiresAPIBackend(t *testing.T) {
	t.Parallel()

	mgr := session.New(session.Config{Mode: "local"})
	t.Cleanup(func() { _ = mgr.Close() })

	err := mgr.AuthorizedPost(context.Background(), "/orders", nil, nil)
	require.ErrorIs(t, err, session.ErrMisconfiguredBackend)
}

func TestCloseIdempotent(t *testing.T) {
	t.Parallel()

	mgr := session.New(session.Config{Mode: "api", APIBaseURL: "http://localhost:0"})
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())
}

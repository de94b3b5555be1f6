package session

import (
	"context"

	"github.com/aspectstore/storekit/pkg/identity"
)

// noopBackend serves the no-auth mode: permanently unauthenticated, all
// operations do nothing. Login, signup, and reset report ErrAuthDisabled so
// a UI wired against the wrong mode fails loudly instead of silently.
type noopBackend struct{}

func (*noopBackend) login(context.Context, Credentials) (*identity.User, error) {
	return nil, ErrAuthDisabled
}

func (*noopBackend) signup(context.Context, SignupDetails) (*identity.User, error) {
	return nil, ErrAuthDisabled
}

func (*noopBackend) logout(context.Context) error { return nil }

func (*noopBackend) resetPassword(context.Context, string) error { return ErrAuthDisabled }

func (*noopBackend) session(context.Context) Session { return Session{} }

func (*noopBackend) close() error { return nil }

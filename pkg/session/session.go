package session

import (
	"context"

	"github.com/aspectstore/storekit/pkg/identity"
)

// Session is the observable state of the current authentication session.
type Session struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *identity.User
}

// Credentials are what a login form submits.
type Credentials struct {
	Email    string
	Password string
}

// SignupDetails are what a signup form submits.
type SignupDetails struct {
	Name     string
	Email    string
	Password string
}

// Authenticator is the uniform session contract every backend satisfies.
// Which backend sits behind it is decided once at construction from
// configuration; callers never branch on mode.
type Authenticator interface {
	// Login authenticates with email and password. Backends that cannot
	// resolve a user in-process (hosted redirect) return a nil user and
	// deliver it through the callback instead.
	Login(ctx context.Context, creds Credentials) (*identity.User, error)

	// Signup registers a new account and authenticates it.
	Signup(ctx context.Context, details SignupDetails) (*identity.User, error)

	// Logout ends the session. It never fails from the caller's point of
	// view: remote calls are best-effort and local state is always cleared.
	Logout(ctx context.Context) error

	// ResetPassword starts a password reset for the email.
	ResetPassword(ctx context.Context, email string) error

	// Session returns a snapshot of the observable session state.
	Session(ctx context.Context) Session

	// Close releases backend resources: any armed renewal timer and any
	// in-flight refresh bookkeeping. Safe to call more than once.
	Close() error
}

// backend is the internal contract the four mode implementations satisfy.
// The Manager wraps one of them with transition serialization and change
// hooks.
type backend interface {
	login(ctx context.Context, creds Credentials) (*identity.User, error)
	signup(ctx context.Context, details SignupDetails) (*identity.User, error)
	logout(ctx context.Context) error
	resetPassword(ctx context.Context, email string) error
	session(ctx context.Context) Session
	close() error
}

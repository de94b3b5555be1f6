package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/validator"
)

// localBackend keeps a single account per store under a fixed key, with the
// credential kept verbatim next to the record. This is a demo-grade model
// on purpose: signup overwrites whatever account existed, login compares
// the stored credential byte for byte, and password reset can tell
// synchronously whether an account exists. None of it is a template for
// real credential handling.
type localBackend struct {
	kv     kvstore.Store
	logger *slog.Logger
}

func (b *localBackend) login(ctx context.Context, creds Credentials) (*identity.User, error) {
	email := strings.TrimSpace(creds.Email)

	existing := readUser(ctx, b.kv, b.logger)
	if existing == nil || existing.Email != email || existing.Password != creds.Password {
		return nil, ErrInvalidCredentials
	}
	return existing, nil
}

func (b *localBackend) signup(ctx context.Context, details SignupDetails) (*identity.User, error) {
	email := strings.TrimSpace(details.Email)
	if err := validateSignup(email, details.Password); err != nil {
		return nil, err
	}

	user := &identity.User{
		// The email doubles as the stable per-user id in local mode.
		ID:       identity.FlexibleID(email),
		Name:     displayName(details.Name, email),
		Email:    email,
		Password: details.Password,
		Picture:  avatarURL(details.Name, email),
	}

	// One account per store: a second signup replaces the first.
	writeUser(ctx, b.kv, b.logger, user)
	return user, nil
}

func (b *localBackend) logout(ctx context.Context) error {
	clearUser(ctx, b.kv)
	return nil
}

func (b *localBackend) resetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	// Local mode can answer synchronously whether the account exists. A
	// real backend must not reveal this; the behavior is kept for parity
	// with the demo storefront.
	existing := readUser(ctx, b.kv, b.logger)
	if existing == nil || existing.Email != email {
		return ErrUnknownAccount
	}
	return nil
}

func (b *localBackend) session(ctx context.Context) Session {
	user := readUser(ctx, b.kv, b.logger)
	return Session{
		IsAuthenticated: user != nil,
		User:            user,
	}
}

func (b *localBackend) close() error { return nil }

// validateSignup enforces the form-level rules shared by the local and api
// backends.
func validateSignup(email, password string) error {
	return validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.Required("password", password),
		validator.MinLen("password", password, 6),
	)
}

// displayName falls back to the email's local part when no name was given.
func displayName(name, email string) string {
	if name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "Local User"
}

// avatarURL points at a generated placeholder avatar for the account.
func avatarURL(name, email string) string {
	label := name
	if label == "" {
		label = email
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s", url.QueryEscape(label))
}

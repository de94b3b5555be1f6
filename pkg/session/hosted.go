package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
)

// Redirector sends the browser to an external URL. The UI layer provides
// the real implementation; the hosted backend only constructs URLs.
type Redirector interface {
	Navigate(ctx context.Context, url string) error
}

// RedirectorFunc adapts a plain function to the Redirector interface.
type RedirectorFunc func(ctx context.Context, url string) error

func (f RedirectorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// hostedStateKey stores the pending authorization state parameter between
// the outbound redirect and the callback.
const hostedStateKey = "auth_state"

// hostedBackend delegates authentication to a provider-hosted page via
// browser redirects. Login and signup navigate away and resolve no user;
// the round-trip completes in handleCallback, which exchanges the returned
// code and fetches the provider profile. There is no local credential
// handling at all in this mode.
type hostedBackend struct {
	domain   string
	clientID string
	oauth    *oauth2.Config
	// userinfoURL is derived from the domain; tests point it elsewhere.
	userinfoURL string

	kv       kvstore.Store
	client   *http.Client
	redirect Redirector
	logger   *slog.Logger
}

func newHostedBackend(cfg Config, kv kvstore.Store, client *http.Client, redirect Redirector, logger *slog.Logger) *hostedBackend {
	b := &hostedBackend{
		domain:   strings.TrimSpace(cfg.Auth0Domain),
		clientID: strings.TrimSpace(cfg.Auth0ClientID),
		kv:       kv,
		client:   client,
		redirect: redirect,
		logger:   logger,
	}

	if !b.configured() {
		logger.Warn("hosted auth is not configured; operations will fail",
			slog.Bool("domain_set", b.domain != ""),
			slog.Bool("client_id_set", b.clientID != ""))
		return b
	}

	b.oauth = &oauth2.Config{
		ClientID:    b.clientID,
		RedirectURL: cfg.Auth0Callback,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://%s/authorize", b.domain),
			TokenURL: fmt.Sprintf("https://%s/oauth/token", b.domain),
		},
		Scopes: []string{"openid", "profile", "email"},
	}
	b.userinfoURL = fmt.Sprintf("https://%s/userinfo", b.domain)
	return b
}

func (b *hostedBackend) configured() bool {
	return b.domain != "" && b.clientID != ""
}

func (b *hostedBackend) login(ctx context.Context, _ Credentials) (*identity.User, error) {
	return nil, b.authorize(ctx)
}

// signup is the same redirect with a hint so the provider opens its signup
// screen.
func (b *hostedBackend) signup(ctx context.Context, _ SignupDetails) (*identity.User, error) {
	return nil, b.authorize(ctx, oauth2.SetAuthURLParam("screen_hint", "signup"))
}

func (b *hostedBackend) authorize(ctx context.Context, opts ...oauth2.AuthCodeOption) error {
	if !b.configured() {
		return ErrMisconfiguredBackend
	}
	if b.redirect == nil {
		return errors.New("session: no redirector configured for hosted auth")
	}

	state := uuid.NewString()
	writeValue(ctx, b.kv, hostedStateKey, state)

	return b.redirect.Navigate(ctx, b.oauth.AuthCodeURL(state, opts...))
}

// handleCallback completes the browser round-trip: it validates the state
// parameter, exchanges the authorization code, and resolves the provider
// profile into the session's user record.
func (b *hostedBackend) handleCallback(ctx context.Context, code, state string) (*identity.User, error) {
	if !b.configured() {
		return nil, ErrMisconfiguredBackend
	}

	// One-time use: consume the stored state before comparing.
	stored := readValue(ctx, b.kv, hostedStateKey)
	clearValue(ctx, b.kv, hostedStateKey)
	if state == "" || state != stored {
		return nil, ErrInvalidState
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)
	token, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}

	user, err := b.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	writeUser(ctx, b.kv, b.logger, user)
	return user, nil
}

// fetchProfile loads the provider's userinfo document for the token.
func (b *hostedBackend) fetchProfile(ctx context.Context, token *oauth2.Token) (*identity.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	res, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrUnauthorized, res.StatusCode)
	}

	var user identity.User
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("session: malformed userinfo response: %w", err)
	}
	return &user, nil
}

// logout clears the local session and sends the browser to the provider's
// logout page. Navigation failures are swallowed; logout never fails.
func (b *hostedBackend) logout(ctx context.Context) error {
	clearUser(ctx, b.kv)
	clearValue(ctx, b.kv, hostedStateKey)

	if b.configured() && b.redirect != nil {
		logoutURL := fmt.Sprintf("https://%s/v2/logout?client_id=%s", b.domain, url.QueryEscape(b.clientID))
		if err := b.redirect.Navigate(ctx, logoutURL); err != nil {
			b.logger.Warn("provider logout navigation failed", slog.Any("error", err))
		}
	}
	return nil
}

// resetPassword navigates to the provider-hosted reset page.
func (b *hostedBackend) resetPassword(ctx context.Context, email string) error {
	if !b.configured() {
		return ErrMisconfiguredBackend
	}
	if b.redirect == nil {
		return errors.New("session: no redirector configured for hosted auth")
	}

	resetURL := fmt.Sprintf("https://%s/u/reset-password?client_id=%s", b.domain, url.QueryEscape(b.clientID))
	if email = strings.TrimSpace(email); email != "" {
		resetURL += "&email=" + url.QueryEscape(email)
	}
	return b.redirect.Navigate(ctx, resetURL)
}

func (b *hostedBackend) session(ctx context.Context) Session {
	user := readUser(ctx, b.kv, b.logger)

	// Between the outbound redirect and the callback the session is
	// neither authenticated nor settled.
	pending := readValue(ctx, b.kv, hostedStateKey) != ""

	return Session{
		IsAuthenticated: user != nil,
		IsLoading:       user == nil && pending,
		User:            user,
	}
}

func (b *hostedBackend) close() error { return nil }

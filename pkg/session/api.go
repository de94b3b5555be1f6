package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
)

// csrfHeader carries the locally stored CSRF value on state-changing
// credentialed requests.
const csrfHeader = "X-CSRF-Token"

// refreshKey is the singleflight key; there is only one kind of refresh,
// so one key.
const refreshKey = "refresh"

// apiBackend runs a bearer-token session against a remote auth service.
//
// Token lifecycle: any authenticated call answered with 401 triggers
// exactly one refresh and, if that succeeds, one retry of the original
// call. Concurrent 401s share a single in-flight refresh through
// singleflight. A successful token acquisition arms a renewal timer that
// preemptively refreshes shortly before expiry; its failure is swallowed
// because the next 401 retries reactively anyway.
type apiBackend struct {
	baseURL string
	kv      kvstore.Store
	client  *http.Client
	logger  *slog.Logger

	refreshGroup singleflight.Group

	timerMu    sync.Mutex
	renewTimer *time.Timer
}

func newAPIBackend(cfg Config, kv kvstore.Store, client *http.Client, logger *slog.Logger) *apiBackend {
	return &apiBackend{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		kv:      kv,
		client:  client,
		logger:  logger,
	}
}

// authResponse is what the auth endpoints return.
type authResponse struct {
	Token     string         `json:"token"`
	User      *identity.User `json:"user,omitempty"`
	ExpiresIn int64          `json:"expiresIn,omitempty"`
	Success   bool           `json:"success,omitempty"`
}

// httpError is a non-2xx backend response normalized to its status and the
// human-readable message the backend sent, if any.
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("session: request failed (%d): %s", e.Status, e.Message)
}

// callOpts control how a request is sent: bearer requests carry the stored
// token and are eligible for the refresh-and-retry cycle; csrf requests
// carry the stored CSRF header.
type callOpts struct {
	bearer bool
	csrf   bool
}

func (b *apiBackend) login(ctx context.Context, creds Credentials) (*identity.User, error) {
	payload := map[string]string{
		"email":    strings.TrimSpace(creds.Email),
		"password": creds.Password,
	}

	out, err := b.call(ctx, "/auth/login", payload, callOpts{})
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && (he.Status == http.StatusBadRequest ||
			he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, he.Message)
		}
		return nil, err
	}

	b.applyAuth(ctx, out)
	return out.User, nil
}

func (b *apiBackend) signup(ctx context.Context, details SignupDetails) (*identity.User, error) {
	email := strings.TrimSpace(details.Email)
	if err := validateSignup(email, details.Password); err != nil {
		return nil, err
	}

	payload := map[string]string{
		"name":     details.Name,
		"email":    email,
		"password": details.Password,
	}

	out, err := b.call(ctx, "/auth/signup", payload, callOpts{})
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && he.Status == http.StatusConflict {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, he.Message)
		}
		return nil, err
	}

	b.applyAuth(ctx, out)
	return out.User, nil
}

// logout is best-effort: the remote call's outcome is ignored and local
// state is always cleared.
func (b *apiBackend) logout(ctx context.Context) error {
	if b.baseURL != "" {
		if res, err := b.do(ctx, "/auth/logout", struct{}{}, callOpts{csrf: true}); err == nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
		}
	}
	b.clearSession(ctx)
	return nil
}

func (b *apiBackend) resetPassword(ctx context.Context, email string) error {
	payload := map[string]string{"email": strings.TrimSpace(email)}

	_, err := b.call(ctx, "/auth/reset-password", payload, callOpts{})
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && he.Status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, he.Message)
		}
		return err
	}
	return nil
}

func (b *apiBackend) session(ctx context.Context) Session {
	token := readValue(ctx, b.kv, apiTokenKey)
	user := readUser(ctx, b.kv, b.logger)
	return Session{
		IsAuthenticated: token != "" && user != nil,
		User:            user,
	}
}

func (b *apiBackend) close() error {
	b.cancelRenewal()
	return nil
}

// authorizedPost performs an authenticated JSON POST with the full
// refresh-and-retry policy, decoding the response into out when non-nil.
// This is what downstream API calls (orders, profile updates) go through
// so the token lifecycle stays in one place.
func (b *apiBackend) authorizedPost(ctx context.Context, path string, payload, out any) error {
	raw, err := b.roundTrip(ctx, path, payload, callOpts{bearer: true, csrf: true})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("session: malformed response: %w", err)
	}
	return nil
}

// call performs an auth-endpoint request and parses the standard payload.
func (b *apiBackend) call(ctx context.Context, path string, payload any, o callOpts) (*authResponse, error) {
	raw, err := b.roundTrip(ctx, path, payload, o)
	if err != nil {
		return nil, err
	}

	var out authResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("session: malformed response: %w", err)
	}
	return &out, nil
}

// roundTrip sends one request and, for bearer requests answered with 401,
// runs the single refresh-and-retry cycle. It returns the success body or
// a normalized error.
func (b *apiBackend) roundTrip(ctx context.Context, path string, payload any, o callOpts) ([]byte, error) {
	body, status, err := b.exchange(ctx, path, payload, o)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && o.bearer {
		message := bodyMessage(body, "Unauthorized")

		if _, err := b.refreshShared(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}

		// Exactly one retry, now carrying the refreshed token.
		body, status, err = b.exchange(ctx, path, payload, o)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, bodyMessage(body, "Unauthorized"))
		}
	}

	if status < 200 || status >= 300 {
		return nil, &httpError{
			Status:  status,
			Message: bodyMessage(body, fmt.Sprintf("Request failed (%d)", status)),
		}
	}
	return body, nil
}

// exchange performs a single HTTP round-trip and drains the body.
// Transport failures surface as ErrNetwork.
func (b *apiBackend) exchange(ctx context.Context, path string, payload any, o callOpts) ([]byte, int, error) {
	res, err := b.do(ctx, path, payload, o)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, errors.Join(ErrNetwork, err)
	}
	return body, res.StatusCode, nil
}

// do builds and sends one JSON request.
func (b *apiBackend) do(ctx context.Context, path string, payload any, o callOpts) (*http.Response, error) {
	if b.baseURL == "" {
		return nil, ErrMisconfiguredBackend
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if o.bearer {
		if token := readValue(ctx, b.kv, apiTokenKey); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if o.csrf {
		if csrf := readValue(ctx, b.kv, csrfTokenKey); csrf != "" {
			req.Header.Set(csrfHeader, csrf)
		}
	}

	res, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}
	return res, nil
}

// refreshShared funnels all callers through a single in-flight refresh:
// whoever arrives while one is outstanding awaits the same outcome instead
// of issuing another request.
func (b *apiBackend) refreshShared(ctx context.Context) (*authResponse, error) {
	out, err, _ := b.refreshGroup.Do(refreshKey, func() (any, error) {
		// The refresh outcome is shared; one caller's cancellation must not
		// fail it for the others.
		return b.refreshToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return out.(*authResponse), nil
}

// refreshToken performs the credentialed refresh call. Failure invalidates
// the whole local session.
func (b *apiBackend) refreshToken(ctx context.Context) (*authResponse, error) {
	body, status, err := b.exchange(ctx, "/auth/refresh", nil, callOpts{csrf: true})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		b.clearSession(ctx)
		return nil, &httpError{
			Status:  status,
			Message: bodyMessage(body, fmt.Sprintf("Refresh failed (%d)", status)),
		}
	}

	var out authResponse
	if err := json.Unmarshal(body, &out); err != nil {
		b.clearSession(ctx)
		return nil, fmt.Errorf("session: malformed refresh response: %w", err)
	}

	b.applyAuth(ctx, &out)
	return &out, nil
}

// applyAuth persists whatever a successful auth response carried and
// re-arms the renewal timer when the backend reported an expiry.
func (b *apiBackend) applyAuth(ctx context.Context, out *authResponse) {
	if out.Token != "" {
		writeValue(ctx, b.kv, apiTokenKey, out.Token)
	}
	if out.User != nil {
		writeUser(ctx, b.kv, b.logger, out.User)
	}
	if out.ExpiresIn > 0 {
		b.scheduleRenewal(time.Duration(out.ExpiresIn) * time.Second)
	}
}

// scheduleRenewal arms the preemptive refresh timer, replacing any timer
// armed for a previous token.
func (b *apiBackend) scheduleRenewal(expiresIn time.Duration) {
	delay := renewalDelay(expiresIn)

	b.timerMu.Lock()
	defer b.timerMu.Unlock()

	if b.renewTimer != nil {
		b.renewTimer.Stop()
		b.renewTimer = nil
	}
	if delay <= 0 {
		return
	}

	b.renewTimer = time.AfterFunc(delay, func() {
		// Fire and forget: a failure here is retried reactively by the next
		// authenticated call's 401.
		if _, err := b.refreshShared(context.Background()); err != nil {
			b.logger.Warn("preemptive token refresh failed", slog.Any("error", err))
		}
	})
}

// renewalDelay computes when to preemptively refresh: 15% of the token
// lifetime before expiry, clamped so the lead stays between 10 and 60
// seconds. A lifetime shorter than the lead yields no preemptive refresh.
func renewalDelay(expiresIn time.Duration) time.Duration {
	lead := expiresIn * 15 / 100
	if lead < 10*time.Second {
		lead = 10 * time.Second
	}
	if lead > 60*time.Second {
		lead = 60 * time.Second
	}
	return expiresIn - lead
}

// clearSession drops the token, the user record, and any armed timer.
func (b *apiBackend) clearSession(ctx context.Context) {
	clearValue(ctx, b.kv, apiTokenKey)
	clearUser(ctx, b.kv)
	b.cancelRenewal()
}

func (b *apiBackend) cancelRenewal() {
	b.timerMu.Lock()
	defer b.timerMu.Unlock()
	if b.renewTimer != nil {
		b.renewTimer.Stop()
		b.renewTimer = nil
	}
}

// bodyMessage pulls a {"message": ...} out of an error body, falling back
// when the body is empty or not JSON.
func bodyMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}

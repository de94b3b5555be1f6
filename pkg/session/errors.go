package session

import "errors"

var (
	// ErrInvalidCredentials indicates the backend rejected the email/password pair.
	ErrInvalidCredentials = errors.New("session: invalid email or password")

	// ErrDuplicateAccount indicates the backend already has an account for the email.
	ErrDuplicateAccount = errors.New("session: account already exists")

	// ErrUnknownAccount indicates no account exists for the email.
	ErrUnknownAccount = errors.New("session: no account found with that email")

	// ErrUnauthorized indicates an authenticated call failed even after the
	// single refresh-and-retry cycle.
	ErrUnauthorized = errors.New("session: unauthorized")

	// ErrNetwork indicates a transport-level failure talking to the backend.
	ErrNetwork = errors.New("session: network error")

	// ErrMisconfiguredBackend indicates required backend configuration (API
	// base URL, hosted provider domain or client id) is absent.
	ErrMisconfiguredBackend = errors.New("session: backend is not configured")

	// ErrAuthDisabled indicates the no-auth mode is active and the operation
	// has nothing to do.
	ErrAuthDisabled = errors.New("session: authentication is disabled")

	// ErrCallbackNotSupported indicates the active backend has no redirect
	// callback to handle.
	ErrCallbackNotSupported = errors.New("session: backend does not use a redirect callback")

	// ErrInvalidState indicates a hosted callback arrived with an unknown or
	// reused state parameter.
	ErrInvalidState = errors.New("session: invalid state parameter")
)

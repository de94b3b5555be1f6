// Package session implements the storefront's authentication session: one
// uniform contract (login, signup, logout, password reset, observable
// state) over four interchangeable backends selected once at startup.
//
// # Modes
//
//   - none  — authentication disabled; permanently unauthenticated.
//   - local — a single demo account stored in the key-value store, with
//     the credential kept verbatim. Deliberately demo-grade; see the
//     localBackend docs.
//   - api   — bearer-token session against a remote auth service with
//     401-triggered refresh-and-retry and preemptive token renewal.
//   - auth0 — provider-hosted login via browser redirects; the round-trip
//     completes through Manager.HandleCallback.
//
// The mode comes from AUTH_MODE and is a closed set; unrecognized values
// fall back to the default with a logged warning instead of failing
// startup. Callers never branch on mode — they hold an Authenticator and
// the dispatch happened at construction.
//
// # Token refresh (api mode)
//
// An authenticated call answered with 401 triggers exactly one refresh
// and, only if that succeeds, one retry. Concurrent 401s share a single
// in-flight refresh via singleflight. When the backend reports a token
// lifetime, a renewal timer fires 15% of the lifetime before expiry
// (clamped to a 10–60 second lead); it is re-armed on every token
// acquisition and cleared on logout and Close.
//
// # Change observation
//
// WithAfterChange registers hooks that run synchronously, in order, after
// every completed transition. The cart binder uses this to track identity
// changes as a strict sequence.
//
// # Errors
//
// Backend internals (storage failures, malformed JSON) never crash a
// caller: persisted junk reads as signed-out, and remote failures are
// normalized to the package's sentinel errors with the backend's message
// attached. Logout never returns an error.
package session

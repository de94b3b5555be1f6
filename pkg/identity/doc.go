// Package identity defines the user record shared by authentication
// backends and the identity derivation rule that keys per-user state.
//
// The derived identity is an opaque stable string, or empty for guests. It
// is what the cart package uses to choose which persisted cart is active,
// so Derive must stay pure and deterministic across backends.
package identity

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
)

// Storage keys shared by the local and api backends. The layout matches
// what the storefront persists in the browser.
const (
	localUserKey = "auth_user"
	apiTokenKey  = "auth_token"
	csrfTokenKey = "csrf_token"
)

// readUser loads the persisted user record. A missing key, a storage
// failure, or malformed JSON all mean "no user"; corruption is logged and
// never surfaces to callers.
func readUser(ctx context.Context, kv kvstore.Store, logger *slog.Logger) *identity.User {
	raw, err := kv.Get(ctx, localUserKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			logger.WarnContext(ctx, "stored user unreadable, treating as signed out",
				slog.Any("error", err))
		}
		return nil
	}

	var user identity.User
	if err := json.Unmarshal(raw, &user); err != nil {
		logger.WarnContext(ctx, "stored user malformed, treating as signed out",
			slog.Any("error", err))
		return nil
	}
	return &user
}

// writeUser persists the user record. Storage failures are logged and
// swallowed; the in-memory session carries on.
func writeUser(ctx context.Context, kv kvstore.Store, logger *slog.Logger, user *identity.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		logger.WarnContext(ctx, "failed to encode user record", slog.Any("error", err))
		return
	}
	if err := kv.Set(ctx, localUserKey, raw); err != nil {
		logger.WarnContext(ctx, "failed to persist user record", slog.Any("error", err))
	}
}

// clearUser removes the persisted user record, ignoring storage failures.
func clearUser(ctx context.Context, kv kvstore.Store) {
	_ = kv.Delete(ctx, localUserKey)
}

// readValue returns the string stored under key, or empty when absent or
// unreadable.
func readValue(ctx context.Context, kv kvstore.Store, key string) string {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return ""
	}
	return string(raw)
}

// writeValue stores a string, ignoring storage failures.
func writeValue(ctx context.Context, kv kvstore.Store, key, value string) {
	if value == "" {
		return
	}
	_ = kv.Set(ctx, key, []byte(value))
}

// clearValue removes key, ignoring storage failures.
func clearValue(ctx context.Context, kv kvstore.Store, key string) {
	_ = kv.Delete(ctx, key)
}

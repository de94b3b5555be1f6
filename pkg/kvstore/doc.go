// Package kvstore provides a narrow key-value blob store abstraction used by
// the session and cart packages for all persisted state.
//
// The interface intentionally mirrors what a storefront client actually has:
// opaque values addressed by string key, read fully before written, with no
// scanning, expiry, or transactions. Three implementations are included:
//
//   - MemoryStore — mutex-guarded map, the default and the one tests use.
//   - RedisStore  — adapter over github.com/redis/go-redis/v9.
//   - MongoStore  — adapter over go.mongodb.org/mongo-driver/v2, one
//     document per key.
//
// # Usage
//
//	store := kvstore.NewMemoryStore()
//	if err := store.Set(ctx, "cart_guest", blob); err != nil { ... }
//	raw, err := store.Get(ctx, "cart_guest")
//	if errors.Is(err, kvstore.ErrKeyNotFound) { ... }
//
// Callers that persist JSON follow a shared policy: a missing key, an
// unreadable value, or a parse failure is treated as absent data, logged at
// most, and never propagated to the user-facing operation.
package kvstore

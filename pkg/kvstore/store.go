package kvstore

import "context"

// Store is a narrow interface over string-keyed binary blobs. It models the
// kind of persistent storage a storefront client has available: opaque
// values addressed by key, with no scanning or transactions.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

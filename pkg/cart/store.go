package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/logger"
)

// Store is the live cart: the blob at the currently active storage key,
// held in memory and written through on every mutation. Exactly one key is
// active at a time; switching keys goes through Reset, which discards all
// in-memory state so nothing from the previous key's session survives.
type Store struct {
	mu     sync.Mutex
	kv     kvstore.Store
	logger *slog.Logger
	key    string
	blob   Blob
}

// StoreOption configures a Store during construction.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for storage diagnostics.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a live cart over kv, starting on the guest key with the
// blob persisted there (empty if absent).
func NewStore(ctx context.Context, kv kvstore.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.key = GuestKey
	s.blob = readBlob(ctx, s.kv, GuestKey, s.logger)
	return s
}

// Key returns the currently active storage key.
func (s *Store) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Blob returns a snapshot of the active cart.
func (s *Store) Blob() Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob.Clone()
}

// Items returns a snapshot of the active cart's line items.
func (s *Store) Items() []Item {
	return s.Blob().Items
}

// Reset switches the active key and reinitializes the cart from whatever is
// persisted there. This is a full swap: no item, total, or other in-memory
// state carries over from the previous key.
func (s *Store) Reset(ctx context.Context, key string) {
	if key == "" {
		key = GuestKey
	}
	blob := readBlob(ctx, s.kv, key, s.logger)

	s.mu.Lock()
	s.key = key
	s.blob = blob
	s.mu.Unlock()
}

// AddItem adds an item to the cart, or adds its quantity to an existing line
// with the same id. A zero or negative quantity counts as one.
func (s *Store) AddItem(ctx context.Context, item Item) error {
	if item.ID == "" {
		return ErrMissingItemID
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.blob.Items
	found := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, item.clone())
	}
	return s.commit(ctx, items)
}

// UpdateItemQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line.
func (s *Store) UpdateItemQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.blob.Items
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			return s.commit(ctx, items)
		}
	}
	return ErrItemNotFound
}

// RemoveItem removes the line with the given id, if present.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.blob.Items
	for i := range items {
		if items[i].ID == id {
			items = append(items[:i], items[i+1:]...)
			return s.commit(ctx, items)
		}
	}
	return nil
}

// EmptyCart removes all lines from the active cart.
func (s *Store) EmptyCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, nil)
}

// commit recomputes derived totals and writes the blob through to storage.
// Top-level extras carried by the loaded blob survive the rewrite. Callers
// must hold s.mu.
func (s *Store) commit(ctx context.Context, items []Item) error {
	extra := s.blob.Extra
	s.blob = Recompute(items)
	s.blob.Extra = extra
	return writeBlob(ctx, s.kv, s.key, s.blob)
}

// readBlob loads and parses the blob at key. Missing keys, storage errors,
// and malformed JSON all degrade to an empty cart: persisted junk must never
// break a caller.
func readBlob(ctx context.Context, kv kvstore.Store, key string, logger *slog.Logger) Blob {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			logger.WarnContext(ctx, "cart blob unreadable, treating as empty",
				slog.String("key", key), slog.Any("error", err))
		}
		return Recompute(nil)
	}

	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		logger.WarnContext(ctx, "cart blob malformed, treating as empty",
			slog.String("key", key), slog.Any("error", err))
		return Recompute(nil)
	}

	// Stored totals are never trusted; top-level extras ride along.
	out := Recompute(blob.Items)
	out.Extra = blob.Extra
	return out
}

// writeBlob persists the blob under key.
func writeBlob(ctx context.Context, kv kvstore.Store, key string, blob Blob) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, raw)
}

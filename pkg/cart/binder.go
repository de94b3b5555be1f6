package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/logger"
)

// MergeNoticeText is the user-visible message emitted when a guest cart is
// merged into an account cart on login.
const MergeNoticeText = "We merged your guest cart with your account!"

// MergeNoticeFunc receives the merged blob when an actual merge happened.
// The UI layer typically surfaces MergeNoticeText as a toast.
type MergeNoticeFunc func(ctx context.Context, merged Blob)

// Binder keeps the live cart's active key synchronized with the current
// identity, migrating cart contents across login, logout, and account-switch
// transitions. It is the only component that moves data between cart keys.
type Binder struct {
	mu      sync.Mutex
	kv      kvstore.Store
	cart    *Store
	logger  *slog.Logger
	onMerge MergeNoticeFunc
	current string
}

// BinderOption configures a Binder during construction.
type BinderOption func(*Binder)

// WithBinderLogger sets the logger used for transition diagnostics.
func WithBinderLogger(l *slog.Logger) BinderOption {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMergeNotice registers a hook fired only when a login transition
// actually merged a non-empty guest cart.
func WithMergeNotice(fn MergeNoticeFunc) BinderOption {
	return func(b *Binder) {
		b.onMerge = fn
	}
}

// NewBinder creates a binder over the same storage the live cart uses. The
// binder starts in the guest state; call Apply whenever the session's
// identity changes.
func NewBinder(kv kvstore.Store, liveCart *Store, opts ...BinderOption) *Binder {
	b := &Binder{
		kv:     kv,
		cart:   liveCart,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ActiveKey returns the storage key currently designated as active.
func (b *Binder) ActiveKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return KeyFor(b.current)
}

// Apply processes an identity transition. The empty identity means guest.
// Calls are serialized, and each transition's delta is computed against the
// last applied identity, so rapid changes are handled as a strict sequence
// and an intermediate guest state is never skipped.
//
// Transitions:
//   - guest -> identified: merge a non-empty guest cart into the identity's
//     cart, persist it there, delete the guest blob, then switch keys. The
//     merge notice fires only when a merge actually happened.
//   - identified -> other identified: switch keys, no merge. Each identity's
//     cart is independent.
//   - identified -> guest: switch back to the guest key, leaving the
//     identity's blob in storage for the next login.
//   - no identity change: no-op.
func (b *Binder) Apply(ctx context.Context, identity string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	previous := b.current
	if previous == identity {
		return nil
	}

	if previous == "" && identity != "" {
		if err := b.login(ctx, identity); err != nil {
			return err
		}
	} else {
		// Account switch and logout both reduce to a plain key swap; the
		// previous identity's blob stays in storage untouched.
		b.cart.Reset(ctx, KeyFor(identity))
	}

	b.logger.InfoContext(ctx, "cart key switched",
		slog.String("from", KeyFor(previous)),
		slog.String("to", KeyFor(identity)))

	b.current = identity
	return nil
}

// login merges the guest cart into the identity's cart and activates the
// identity's key. Callers must hold b.mu.
func (b *Binder) login(ctx context.Context, identity string) error {
	targetKey := KeyFor(identity)
	guest := readBlob(ctx, b.kv, GuestKey, b.logger)

	if len(guest.Items) > 0 {
		target := readBlob(ctx, b.kv, targetKey, b.logger)
		merged := Merge(guest, target)

		if err := writeBlob(ctx, b.kv, targetKey, merged); err != nil {
			return err
		}
		if err := b.kv.Delete(ctx, GuestKey); err != nil {
			return err
		}

		if b.onMerge != nil {
			b.onMerge(ctx, merged.Clone())
		}
	}

	b.cart.Reset(ctx, targetKey)
	return nil
}

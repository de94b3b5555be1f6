// Package cart implements the shopping cart blob model, the merge rule that
// reconciles two carts, a write-through live cart store, and the binder that
// keeps the active cart key synchronized with the current identity.
//
// # Data model
//
// A cart is persisted as a Blob: line items plus derived totals. Derived
// fields are always recomputed from the item list via Recompute; values
// found in storage are never trusted. The guest cart lives under the fixed
// GuestKey, each identity's cart under KeyFor(identity).
//
// # Merging
//
// On login the guest cart is merged into the account cart: quantities add
// up for shared ids, the account cart's other fields win, and guest-only
// items are appended. Merge never loses items and always recomputes totals.
//
// # Binding
//
// Binder owns the mapping from identity to active key. Every key switch
// fully reinitializes the live Store from storage, so items from one
// identity's session can never bleed into another's. Transitions are
// serialized; the delta for each is computed against the last applied
// identity.
//
// # Storage
//
// All persistence goes through kvstore.Store. Unreadable or malformed blobs
// are treated as empty carts and logged, never propagated.
package cart

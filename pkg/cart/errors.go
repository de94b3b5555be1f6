package cart

import "errors"

var (
	// ErrMissingItemID indicates an item without an id was passed to the store.
	ErrMissingItemID = errors.New("cart: missing item id")

	// ErrItemNotFound indicates no line with the requested id is in the cart.
	ErrItemNotFound = errors.New("cart: item not found")
)

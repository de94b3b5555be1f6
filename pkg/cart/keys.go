package cart

// GuestKey is the fixed storage key for the anonymous cart.
const GuestKey = "cart_guest"

const userKeyPrefix = "cart_"

// KeyFor returns the storage key for an identity's cart. The empty identity
// maps to the guest key.
func KeyFor(identity string) string {
	if identity == "" {
		return GuestKey
	}
	return userKeyPrefix + identity
}

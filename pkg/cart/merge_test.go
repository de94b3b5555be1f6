package cart_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspectstore/storekit/pkg/cart"
)

func TestMerge_DisjointIDs(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{
		{ID: "a", Quantity: 2, Price: 10},
		{ID: "b", Quantity: 1, Price: 5},
	})
	target := cart.Recompute([]cart.Item{
		{ID: "c", Quantity: 3, Price: 2},
	})

	merged := cart.Merge(guest, target)

	assert.Len(t, merged.Items, 3)
	assert.Equal(t, guest.CartTotal+target.CartTotal, merged.CartTotal)
	assert.Equal(t, guest.TotalItems+target.TotalItems, merged.TotalItems)
	assert.Equal(t, 3, merged.TotalUniqueItems)
	assert.False(t, merged.IsEmpty)
}

func TestMerge_SharedID(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{{ID: "a", Quantity: 2, Price: 99}})
	target := cart.Recompute([]cart.Item{{ID: "a", Quantity: 3, Price: 10}})

	merged := cart.Merge(guest, target)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, 5, merged.Items[0].Quantity)
	// Target's non-quantity fields win; the guest price is discarded.
	assert.Equal(t, 10.0, merged.Items[0].Price)
	assert.Equal(t, 50.0, merged.CartTotal)
}

func TestMerge_TargetFieldsWin(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{{
		ID: "a", Quantity: 1, Price: 1,
		Extra: map[string]json.RawMessage{"title": json.RawMessage(`"guest title"`)},
	}})
	target := cart.Recompute([]cart.Item{{
		ID: "a", Quantity: 1, Price: 2,
		Extra: map[string]json.RawMessage{"title": json.RawMessage(`"target title"`)},
	}})

	merged := cart.Merge(guest, target)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, json.RawMessage(`"target title"`), merged.Items[0].Extra["title"])
}

func TestMerge_EmptyGuestIsIdentity(t *testing.T) {
	t.Parallel()

	target := cart.Recompute([]cart.Item{
		{ID: "a", Quantity: 2, Price: 3.5},
		{ID: "b", Quantity: 1, Price: 1},
	})

	merged := cart.Merge(cart.Recompute(nil), target)

	assert.Equal(t, target.Items, merged.Items)
	assert.Equal(t, target.TotalItems, merged.TotalItems)
	assert.Equal(t, target.CartTotal, merged.CartTotal)
	assert.Equal(t, target.TotalUniqueItems, merged.TotalUniqueItems)
}

func TestMerge_DropsItemsWithoutID(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{
		{ID: "", Quantity: 5, Price: 100},
		{ID: "a", Quantity: 1, Price: 2},
	})
	target := cart.Recompute([]cart.Item{
		{ID: "", Quantity: 7, Price: 50},
	})

	merged := cart.Merge(guest, target)

	require.Len(t, merged.Items, 1)
	assert.Equal(t, "a", merged.Items[0].ID)
	assert.Equal(t, 2.0, merged.CartTotal)
}

func TestMerge_IgnoresStaleTotals(t *testing.T) {
	t.Parallel()

	guest := cart.Blob{
		Items:      []cart.Item{{ID: "a", Quantity: 1, Price: 2}},
		TotalItems: 999, CartTotal: 999, TotalUniqueItems: 999,
	}
	target := cart.Blob{
		Items:      []cart.Item{{ID: "b", Quantity: 1, Price: 3}},
		TotalItems: -1, CartTotal: -1, IsEmpty: true,
	}

	merged := cart.Merge(guest, target)

	assert.Equal(t, 2, merged.TotalItems)
	assert.Equal(t, 5.0, merged.CartTotal)
	assert.Equal(t, 2, merged.TotalUniqueItems)
	assert.False(t, merged.IsEmpty)
}

func TestMerge_OrderIsTargetThenGuest(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{
		{ID: "g1", Quantity: 1},
		{ID: "t1", Quantity: 1},
		{ID: "g2", Quantity: 1},
	})
	target := cart.Recompute([]cart.Item{
		{ID: "t1", Quantity: 1},
		{ID: "t2", Quantity: 1},
	})

	merged := cart.Merge(guest, target)

	ids := make([]string, 0, len(merged.Items))
	for _, it := range merged.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "g1", "g2"}, ids)
}

func TestRecompute(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		blob := cart.Recompute(nil)
		assert.True(t, blob.IsEmpty)
		assert.Zero(t, blob.TotalItems)
		assert.Zero(t, blob.CartTotal)
		assert.NotNil(t, blob.Items)
	})

	t.Run("totals", func(t *testing.T) {
		t.Parallel()
		blob := cart.Recompute([]cart.Item{
			{ID: "a", Quantity: 2, Price: 1.5},
			{ID: "b", Quantity: 3, Price: 2},
		})
		assert.Equal(t, 5, blob.TotalItems)
		assert.Equal(t, 9.0, blob.CartTotal)
		assert.Equal(t, 2, blob.TotalUniqueItems)
		assert.False(t, blob.IsEmpty)
	})
}

func TestMerge_KeepsTargetTopLevelExtras(t *testing.T) {
	t.Parallel()

	guest := cart.Recompute([]cart.Item{{ID: "g", Quantity: 1, Price: 2}})
	guest.Extra = map[string]json.RawMessage{"origin": json.RawMessage(`"guest"`)}

	target := cart.Recompute([]cart.Item{{ID: "t", Quantity: 1, Price: 3}})
	target.Extra = map[string]json.RawMessage{
		"origin":    json.RawMessage(`"account"`),
		"updatedAt": json.RawMessage(`"2024-11-02"`),
	}

	merged := cart.Merge(guest, target)

	assert.Equal(t, json.RawMessage(`"account"`), merged.Extra["origin"])
	assert.Equal(t, json.RawMessage(`"2024-11-02"`), merged.Extra["updatedAt"])
	assert.Len(t, merged.Extra, 2, "guest-side extras are discarded")
}

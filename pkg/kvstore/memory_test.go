package kvstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspectstore/storekit/pkg/kvstore"
)

func TestMemoryStore_GetSet(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemoryStore()
	ctx := context.Background()

	t.Run("missing key returns ErrKeyNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`)))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), value)
	})

	t.Run("set overwrites previous value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte("first")))
		require.NoError(t, store.Set(ctx, "k", []byte("second")))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), value)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "copy", []byte("abc")))

		value, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		value[0] = 'X'

		again, err := store.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, kvstore.ErrEmptyKey)
		assert.ErrorIs(t, store.Set(ctx, "", nil), kvstore.ErrEmptyKey)
		assert.ErrorIs(t, store.Delete(ctx, ""), kvstore.ErrEmptyKey)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "k"))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range 100 {
				_ = store.Set(ctx, "shared", []byte{byte(i)})
				_, _ = store.Get(ctx, "shared")
			}
		}()
	}
	for range 8 {
		<-done
	}

	assert.Equal(t, 1, store.Len())
}

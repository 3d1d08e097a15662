package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	t.Run("PutOpen", func(t *testing.T) {
		data := []byte("in-memory payload")
		require.NoError(t, store.Put(ctx, "a.bin", data))

		blob, err := store.Open(ctx, "a.bin")
		require.NoError(t, err)
		defer blob.Close()

		assert.Equal(t, int64(len(data)), blob.Size())

		all, err := ReadAll(ctx, blob)
		require.NoError(t, err)
		assert.Equal(t, data, all)
	})

	t.Run("OpenCopies", func(t *testing.T) {
		data := []byte("original")
		require.NoError(t, store.Put(ctx, "copy.bin", data))

		// Mutating the slice passed to Put must not affect stored data
		data[0] = 'X'

		blob, err := store.Open(ctx, "copy.bin")
		require.NoError(t, err)
		defer blob.Close()

		all, err := ReadAll(ctx, blob)
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), all)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		fresh := NewMemoryStore()
		require.NoError(t, fresh.Put(ctx, "b.bin", []byte("1")))
		require.NoError(t, fresh.Put(ctx, "a.bin", []byte("2")))
		require.NoError(t, fresh.Put(ctx, "other.dat", []byte("3")))

		names, err := fresh.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.bin", "b.bin", "other.dat"}, names)

		names, err = fresh.List(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.bin"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "del.bin", []byte("x")))
		require.NoError(t, store.Delete(ctx, "del.bin"))

		_, err := store.Open(ctx, "del.bin")
		assert.ErrorIs(t, err, ErrNotFound)

		// Idempotent
		assert.NoError(t, store.Delete(ctx, "del.bin"))
	})
}

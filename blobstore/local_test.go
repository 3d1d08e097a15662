package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arbordb/arbor/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(nil, tmpDir)
	ctx := context.Background()

	// 1. Put a blob
	blobName := "vectors.bin"
	data := []byte("hello world, this is a test blob")
	require.NoError(t, store.Put(ctx, blobName, data))

	// Verify file exists on disk, with no temp leftovers
	_, err := os.Stat(filepath.Join(tmpDir, blobName))
	require.NoError(t, err)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// 2. Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// 3. ReadAll (zero-copy via mmap)
	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, data, all)

	// 4. List
	require.NoError(t, store.Put(ctx, "anchors.bin", []byte("x")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"anchors.bin", "vectors.bin"}, names)

	names, err = store.List(ctx, "vec")
	require.NoError(t, err)
	require.Equal(t, []string{"vectors.bin"}, names)

	// 5. Delete
	require.NoError(t, store.Delete(ctx, blobName))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"anchors.bin"}, names)

	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error
	require.NoError(t, store.Delete(ctx, blobName))
}

func TestLocalStore_PutReplacesAtomically(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(nil, tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tree.bin", []byte("version one")))
	require.NoError(t, store.Put(ctx, "tree.bin", []byte("version two")))

	blob, err := store.Open(ctx, "tree.bin")
	require.NoError(t, err)
	defer blob.Close()

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("version two"), all)
}

func TestLocalStore_PutFailureKeepsPrevious(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	store := NewLocalStore(ffs, tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tree.bin", []byte("stable version")))

	// Fail the fsync of the next temp file. The existing blob must stay
	// intact and the temp file must be cleaned up.
	ffs.AddRule(tempPrefix, fs.Fault{FailOnSync: true})

	err := store.Put(ctx, "tree.bin", []byte("doomed version"))
	require.ErrorIs(t, err, fs.ErrInjected)

	ffs.ClearRules()

	blob, err := store.Open(ctx, "tree.bin")
	require.NoError(t, err)
	defer blob.Close()

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("stable version"), all)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStore_PutWriteFailure(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	store := NewLocalStore(ffs, tmpDir)
	ctx := context.Background()

	ffs.AddRule("tree.bin", fs.Fault{FailAfterBytes: 4})

	err := store.Put(ctx, "tree.bin", []byte("longer than four bytes"))
	require.ErrorIs(t, err, fs.ErrInjected)

	// Nothing was promoted into place
	_, statErr := os.Stat(filepath.Join(tmpDir, "tree.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(nil, filepath.Join(t.TempDir(), "does-not-exist"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_ListSkipsTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(nil, tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tree.bin", []byte("data")))

	// Simulate a leftover temp file from an interrupted write
	leftover := filepath.Join(tmpDir, tempPrefix+"tree.bin-12345")
	require.NoError(t, os.WriteFile(leftover, []byte("partial"), 0o644))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"tree.bin"}, names)
}

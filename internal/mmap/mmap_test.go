package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestMapping(t *testing.T) {
	content := []byte("Hello, Mmap!")

	m, err := Open(writeFile(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	t.Run("ReadAt", func(t *testing.T) {
		buf := make([]byte, 5)
		n, err := m.ReadAt(buf, 7) // "Mmap!"
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "Mmap!", string(buf))
	})

	t.Run("ReadAtOutOfBounds", func(t *testing.T) {
		buf := make([]byte, 10)
		n, err := m.ReadAt(buf, 100)
		assert.Equal(t, 0, n)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("ReadAtPartial", func(t *testing.T) {
		buf := make([]byte, 10)
		n, err := m.ReadAt(buf, 7)
		assert.Equal(t, 5, n)
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, "Mmap!", string(buf[:n]))
	})

	t.Run("ReadAtNegativeOffset", func(t *testing.T) {
		buf := make([]byte, 5)
		_, err := m.ReadAt(buf, -1)
		assert.Equal(t, ErrInvalidOffset, err)
	})

	t.Run("Advise", func(t *testing.T) {
		assert.NoError(t, m.Advise(AccessSequential))
	})
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
}

func TestMapping_Close(t *testing.T) {
	m, err := Open(writeFile(t, []byte("payload")))
	require.NoError(t, err)

	require.NoError(t, m.Close())

	// Idempotent
	assert.NoError(t, m.Close())

	// Access after close is refused
	assert.Nil(t, m.Bytes())

	buf := make([]byte, 4)
	_, err = m.ReadAt(buf, 0)
	assert.Equal(t, ErrClosed, err)

	assert.Equal(t, ErrClosed, m.Advise(AccessRandom))
}

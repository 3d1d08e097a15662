package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arbordb/arbor/internal/fs"
	"github.com/arbordb/arbor/internal/mmap"
)

// Temp files carry a leading dot so they can never collide with blob names,
// which always start with an alphanumeric character.
const tempPrefix = ".tmp-"

// LocalStore implements Store using the local file system.
//
// Writes go to a sibling temp file that is fsynced and renamed into place,
// so a crash mid-write never corrupts an existing blob. Reads are served
// through a read-only memory mapping.
type LocalStore struct {
	fsys fs.FileSystem
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// A nil fsys selects the local file system; tests inject fs.FaultyFS here.
func NewLocalStore(fsys fs.FileSystem, root string) *LocalStore {
	if fsys == nil {
		fsys = fs.Default
	}
	return &LocalStore{fsys: fsys, root: root}
}

// Root returns the directory the store writes into.
func (s *LocalStore) Root() string {
	return s.root
}

// Put writes a blob atomically: temp file, fsync, rename, directory fsync.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fsys.MkdirAll(s.root, 0o755); err != nil {
		return err
	}

	tmp, err := s.fsys.CreateTemp(s.root, tempPrefix+name+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		_ = s.fsys.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}

	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}

	if err := tmp.Close(); err != nil {
		_ = s.fsys.Remove(tmpName)
		return err
	}

	if err := s.fsys.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		_ = s.fsys.Remove(tmpName)
		return err
	}

	// Persist the rename itself. Best effort: not all platforms support
	// fsync on directories.
	s.syncDir()

	return nil
}

func (s *LocalStore) syncDir() {
	d, err := s.fsys.OpenFile(s.root, os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer d.Close()

	_ = d.Sync()
}

// Open opens a blob for reading via mmap.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := mmap.Open(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Blobs are decoded front to back.
	_ = m.Advise(mmap.AccessSequential)

	return &localBlob{m: m}, nil
}

// Delete removes a blob. Missing blobs are ignored.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fsys.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the names of all blobs with the given prefix, sorted.
// Leftover temp files from interrupted writes are excluded.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.fsys.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}

	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}

// Package persistence moves encoded trees between memory and a blob store.
//
// The Manager pairs the wire codec with a blobstore.Store and charges every
// transferred byte against the resource controller's IO limit. Writes are
// atomic at the store layer: a crash mid-save leaves the previous version of
// a tree intact, and readers never observe a partial blob.
package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arbordb/arbor/blobstore"
	"github.com/arbordb/arbor/codec"
	"github.com/arbordb/arbor/kdtree"
	"github.com/arbordb/arbor/resource"
)

// BlobSuffix is appended to a tree name to form its blob name.
const BlobSuffix = ".bin"

// BlobName returns the blob name a tree is persisted under.
func BlobName(tree string) string {
	return tree + BlobSuffix
}

// Manager coordinates tree encode/decode against a single blob store.
// All methods are safe for concurrent use; atomicity of concurrent writes
// to the same name is the store's concern.
type Manager struct {
	store blobstore.Store
	rc    *resource.Controller
}

// NewManager creates a manager on top of the given store. The resource
// controller may be nil, which disables IO throttling.
func NewManager(store blobstore.Store, rc *resource.Controller) *Manager {
	return &Manager{store: store, rc: rc}
}

// Store returns the underlying blob store.
func (pm *Manager) Store() blobstore.Store {
	return pm.store
}

// SaveTree encodes t and writes it to the store under name, replacing any
// previous version atomically.
func (pm *Manager) SaveTree(ctx context.Context, name string, t *kdtree.Tree) error {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, t); err != nil {
		return fmt.Errorf("persistence: failed to encode %q: %w", name, err)
	}

	if err := pm.rc.AcquireIO(ctx, buf.Len()); err != nil {
		return err
	}

	if err := pm.store.Put(ctx, BlobName(name), buf.Bytes()); err != nil {
		return fmt.Errorf("persistence: failed to save %q: %w", name, err)
	}

	return nil
}

// LoadTree reads and decodes the tree persisted under name.
// Returns blobstore.ErrNotFound if no such tree exists and
// codec.ErrCorruptData if the blob does not decode.
func (pm *Manager) LoadTree(ctx context.Context, name string) (*kdtree.Tree, error) {
	blob, err := pm.store.Open(ctx, BlobName(name))
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to open %q: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	if err := pm.rc.AcquireIO(ctx, int(blob.Size())); err != nil {
		return nil, err
	}

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to read %q: %w", name, err)
	}

	// Decode copies every point, so data may alias a mapping that the
	// deferred Close releases.
	t, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to decode %q: %w", name, err)
	}

	return t, nil
}

// ReadMeta reads the header of the tree persisted under name without
// decoding its nodes. Status reporting uses this to describe non-resident
// trees cheaply.
func (pm *Manager) ReadMeta(ctx context.Context, name string) (codec.Header, error) {
	blob, err := pm.store.Open(ctx, BlobName(name))
	if err != nil {
		return codec.Header{}, fmt.Errorf("persistence: failed to open %q: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	raw := make([]byte, codec.HeaderSize)
	if _, err := blob.ReadAt(ctx, raw, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return codec.Header{}, fmt.Errorf("persistence: failed to read header of %q: %w", name, codec.ErrCorruptData)
		}
		return codec.Header{}, fmt.Errorf("persistence: failed to read header of %q: %w", name, err)
	}

	hdr, err := codec.ReadHeader(bytes.NewReader(raw))
	if err != nil {
		return codec.Header{}, fmt.Errorf("persistence: bad header of %q: %w", name, err)
	}

	return hdr, nil
}

// ListTrees returns the names of all persisted trees in lexical order.
func (pm *Manager) ListTrees(ctx context.Context) ([]string, error) {
	blobs, err := pm.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to list trees: %w", err)
	}

	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		name, ok := strings.CutSuffix(b, BlobSuffix)
		if !ok || name == "" {
			continue
		}
		names = append(names, name)
	}

	return names, nil
}

// DeleteTree removes the persisted tree under name. Deleting a tree that
// does not exist is not an error.
func (pm *Manager) DeleteTree(ctx context.Context, name string) error {
	if err := pm.store.Delete(ctx, BlobName(name)); err != nil {
		return fmt.Errorf("persistence: failed to delete %q: %w", name, err)
	}
	return nil
}

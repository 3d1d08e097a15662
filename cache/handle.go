package cache

import (
	"github.com/arbordb/arbor/kdtree"
)

// Handle pins one tree in memory for the duration of an operation.
// A handle is not safe for concurrent use and must be closed exactly once.
type Handle struct {
	m      *Manager
	e      *entry
	closed bool
}

// Tree returns the pinned tree.
func (h *Handle) Tree() *kdtree.Tree {
	return h.e.tree
}

// Name returns the tree's name.
func (h *Handle) Name() string {
	return h.e.name
}

// MarkDirty records that the tree diverged from its persisted form.
// A handle closed while dirty is invalidated, since the in-memory tree no
// longer matches the store.
func (h *Handle) MarkDirty() {
	h.e.dirty = true
}

// CommitFlush acknowledges a successful persist: the dirty mark clears and
// the entry's record count and memory charge are refreshed. A growth that
// pushed usage over budget triggers an eviction pass.
func (h *Handle) CommitFlush() {
	e := h.e
	e.dirty = false

	newBytes := e.tree.MemoryBytes()

	h.m.mu.Lock()
	delta := newBytes - e.memBytes
	e.memBytes = newBytes
	e.records = uint32(e.tree.Len())
	e.dimension = uint32(e.tree.Dimension())
	e.lastAccess = h.m.now()
	h.m.mu.Unlock()

	if delta > 0 {
		h.m.rc.ReserveMemory(delta)
	} else if delta < 0 {
		h.m.rc.ReleaseMemory(-delta)
	}

	h.m.evict(e)
}

// Invalidate drops the tree from memory without touching its persisted
// form; the next acquire reloads the last durable version. A tree that was
// never persisted is forgotten entirely.
func (h *Handle) Invalidate() {
	e := h.e
	e.dirty = false

	h.m.mu.Lock()
	if e.elem != nil {
		h.m.removeElement(e.elem)
	}
	if e.records == 0 {
		if cur, ok := h.m.items[e.name]; ok && cur == e {
			delete(h.m.items, e.name)
		}
	}
	h.m.mu.Unlock()
}

// Close releases the pin.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true

	if h.e.dirty {
		h.Invalidate()
	} else if h.e.tree != nil && h.e.tree.Len() == 0 {
		// A tree that never saw a committed insert is not retained.
		h.Invalidate()
	}
	h.e.mu.Unlock()
}

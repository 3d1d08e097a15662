package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arbordb/arbor/blobstore"
	"github.com/arbordb/arbor/kdtree"
	"github.com/arbordb/arbor/persistence"
	"github.com/arbordb/arbor/resource"
)

// Manager keeps trees resident in memory under the resource controller's
// budget, loading them from the store on demand and evicting the least
// recently used ones when the budget is exceeded.
type Manager struct {
	pm *persistence.Manager
	rc *resource.Controller

	now func() time.Time

	mu        sync.Mutex
	items     map[string]*entry
	evictList *list.List // front = most recently used

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// entry is the cached state of one tree. The entry lock is held for the
// duration of a Handle and across loads, so slow operations on different
// trees never serialize. The fields below it are written with both locks
// held: Status reads them under the manager lock without waiting behind
// in-flight operations, while handles read tree under the entry lock.
type entry struct {
	name string
	mu   sync.Mutex

	dirty bool // entry lock only

	tree       *kdtree.Tree // nil when not resident
	resident   bool
	records    uint32
	dimension  uint32
	lastAccess time.Time // zero = never accessed by this process
	memBytes   int64
	elem       *list.Element // nil when not resident
}

// NewManager creates a tree cache backed by pm. The resource controller
// supplies the memory budget and the load-concurrency cap.
func NewManager(pm *persistence.Manager, rc *resource.Controller) *Manager {
	return &Manager{
		pm:        pm,
		rc:        rc,
		now:       time.Now,
		items:     make(map[string]*entry),
		evictList: list.New(),
	}
}

// SetClock replaces the manager's time source. Tests use a fixed clock to
// make last-access ages deterministic.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// Acquire returns a handle on the named tree, loading it from the store
// when it is not resident. With create set, a tree that exists neither in
// memory nor in the store starts empty in memory; otherwise the error wraps
// blobstore.ErrNotFound. The handle pins the tree: until Close it cannot be
// evicted, and no other operation touches it.
func (m *Manager) Acquire(ctx context.Context, name string, create bool) (*Handle, error) {
	m.mu.Lock()
	e, ok := m.items[name]
	if !ok {
		e = &entry{name: name}
		m.items[name] = e
	}
	m.mu.Unlock()

	e.mu.Lock()

	// Residency may have changed while waiting for the entry lock.
	m.mu.Lock()
	resident := e.resident
	if resident {
		e.lastAccess = m.now()
		m.evictList.MoveToFront(e.elem)
	}
	m.mu.Unlock()

	if resident {
		m.hits.Add(1)
		return &Handle{m: m, e: e}, nil
	}

	m.misses.Add(1)
	if err := m.load(ctx, e, create); err != nil {
		e.mu.Unlock()
		m.discard(e)
		return nil, err
	}

	m.evict(e)
	return &Handle{m: m, e: e}, nil
}

// load brings the entry's tree into memory and commits residency.
// Called with the entry lock held.
func (m *Manager) load(ctx context.Context, e *entry, create bool) error {
	if err := m.rc.AcquireLoad(ctx); err != nil {
		return err
	}
	t, err := m.pm.LoadTree(ctx, e.name)
	m.rc.ReleaseLoad()

	if err != nil {
		if !create || !errors.Is(err, blobstore.ErrNotFound) {
			return err
		}
		// Nothing durable yet; the tree starts empty and is persisted
		// on its first committed insert.
		t = kdtree.New()
	}

	bytes := t.MemoryBytes()

	m.mu.Lock()
	m.items[e.name] = e // re-attach in case a failed sibling discarded the stub
	e.tree = t
	e.resident = true
	e.records = uint32(t.Len())
	e.dimension = uint32(t.Dimension())
	e.memBytes = bytes
	e.elem = m.evictList.PushFront(e)
	e.lastAccess = m.now()
	m.mu.Unlock()

	m.rc.ReserveMemory(bytes)
	return nil
}

// discard removes a stub that never gained state, so failed lookups do not
// leave ghost names behind. Entries with known durable state stay as
// metadata shells for status reporting.
func (m *Manager) discard(e *entry) {
	m.mu.Lock()
	if cur, ok := m.items[e.name]; ok && cur == e &&
		!e.resident && e.records == 0 && e.dimension == 0 && e.lastAccess.IsZero() {
		delete(m.items, e.name)
	}
	m.mu.Unlock()
}

// evict drops least-recently-used resident trees until usage fits the
// budget again. The entry being served and any entry whose lock is held
// are skipped, so the budget may remain exceeded when nothing is
// evictable.
func (m *Manager) evict(protected *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem := m.evictList.Back()
	for m.rc.OverBudget() && elem != nil {
		prev := elem.Prev()
		victim := elem.Value.(*entry)
		if victim != protected && victim.mu.TryLock() {
			m.removeElement(elem)
			victim.mu.Unlock()
			m.evictions.Add(1)
		}
		elem = prev
	}
}

// removeElement drops residency for the entry held by elem, keeping its
// metadata for status reporting. Callers hold the manager lock and the
// entry lock.
func (m *Manager) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	m.evictList.Remove(elem)
	e.elem = nil
	e.tree = nil
	e.resident = false
	m.rc.ReleaseMemory(e.memBytes)
	e.memBytes = 0
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses, evictions int64) {
	return m.hits.Load(), m.misses.Load(), m.evictions.Load()
}

// Close drops every resident tree and releases its memory charge.
// Callers must ensure no handles are open.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for elem := m.evictList.Front(); elem != nil; {
		next := elem.Next()
		m.removeElement(elem)
		elem = next
	}
	return nil
}

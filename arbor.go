package arbor

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/arbordb/arbor/blobstore"
	"github.com/arbordb/arbor/cache"
	"github.com/arbordb/arbor/kdtree"
	"github.com/arbordb/arbor/persistence"
	"github.com/arbordb/arbor/resource"
)

// Forest is a collection of named KD-trees persisted to a blob store and
// cached in memory under a byte budget. It is the service entry point:
// inserts are write-through, queries are read-only, and trees move between
// memory and storage transparently.
//
// All methods are safe for concurrent use. Operations on the same tree
// serialize; operations on distinct trees proceed in parallel.
type Forest struct {
	store   blobstore.Store
	rc      *resource.Controller
	pm      *persistence.Manager
	cache   *cache.Manager
	limits  Limits
	logger  *Logger
	metrics MetricsCollector

	closed atomic.Bool
}

// Tree names double as storage keys, so they are restricted to a safe
// alphabet and length.
var treeNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Open creates a Forest. Without options it persists to a local directory
// named by DefaultDirectory with a DefaultMaxMemoryBytes budget.
func Open(optFns ...Option) (*Forest, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(o)
	}

	store := o.store
	if store == nil {
		store = blobstore.NewLocalStore(nil, o.directory)
	}

	rc := resource.NewController(resource.Config{
		MemoryBudgetBytes:  o.maxMemoryBytes,
		MaxConcurrentLoads: o.maxConcurrentLoads,
		IOLimitBytesPerSec: o.ioLimitBytesPerSec,
	})
	pm := persistence.NewManager(store, rc)
	cm := cache.NewManager(pm, rc)
	if o.clock != nil {
		cm.SetClock(o.clock)
	}

	f := &Forest{
		store:   store,
		rc:      rc,
		pm:      pm,
		cache:   cm,
		limits:  o.limits,
		logger:  o.logger,
		metrics: o.metrics,
	}

	// Light startup scan: verifies the store is reachable and reports
	// what is already persisted. Trees load lazily on first access.
	names, err := pm.ListTrees(context.Background())
	if err != nil {
		return nil, translateError(err)
	}
	f.logger.Info("forest opened",
		"persisted_trees", len(names),
		"memory_budget_bytes", o.maxMemoryBytes,
	)

	return f, nil
}

// InsertResult acknowledges a committed insert.
type InsertResult struct {
	Tree      string
	Records   int
	Dimension int
}

// Insert adds a point to the named tree, creating the tree if it does not
// exist. The updated tree is durable before the call returns: a crash
// afterwards loses nothing, a crash during it loses only this insert.
func (f *Forest) Insert(ctx context.Context, tree string, point []float64) (InsertResult, error) {
	start := time.Now()
	res, err := f.insert(ctx, tree, point)
	duration := time.Since(start)
	err = translateError(err)
	f.metrics.RecordInsert(duration, err)
	f.logger.LogInsert(ctx, tree, len(point), err)
	return res, err
}

func (f *Forest) insert(ctx context.Context, tree string, point []float64) (InsertResult, error) {
	if f.closed.Load() {
		return InsertResult{}, ErrClosed
	}
	if err := validateTreeName(tree); err != nil {
		return InsertResult{}, err
	}
	if err := f.validatePoint(point); err != nil {
		return InsertResult{}, err
	}

	h, err := f.cache.Acquire(ctx, tree, true)
	if err != nil {
		return InsertResult{}, err
	}
	defer h.Close()

	if err := h.Tree().Insert(kdtree.Point(point)); err != nil {
		return InsertResult{}, err
	}
	h.MarkDirty()

	if err := f.pm.SaveTree(ctx, tree, h.Tree()); err != nil {
		// Memory and disk stay consistent: drop the mutated copy and
		// let the next access reload the last durable version.
		h.Invalidate()
		return InsertResult{}, err
	}
	h.CommitFlush()

	return InsertResult{
		Tree:      tree,
		Records:   h.Tree().Len(),
		Dimension: h.Tree().Dimension(),
	}, nil
}

// Nearest returns the k points in the named tree closest to query, nearest
// first. It is read-only: no tree is created or mutated, and ErrNotFound
// reports a name with neither a resident tree nor a persisted one.
func (f *Forest) Nearest(ctx context.Context, tree string, query []float64, k int) ([]kdtree.Point, error) {
	start := time.Now()
	points, err := f.nearest(ctx, tree, query, k)
	duration := time.Since(start)
	err = translateError(err)
	f.metrics.RecordQuery(k, duration, err)
	f.logger.LogQuery(ctx, tree, k, len(points), err)
	return points, err
}

func (f *Forest) nearest(ctx context.Context, tree string, query []float64, k int) ([]kdtree.Point, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if err := validateTreeName(tree); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	if k > f.limits.MaxK {
		return nil, fmt.Errorf("%w: k %d exceeds maximum %d", ErrLimitExceeded, k, f.limits.MaxK)
	}
	if err := f.validatePoint(query); err != nil {
		return nil, err
	}

	h, err := f.cache.Acquire(ctx, tree, false)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	results, err := h.Tree().KNNSearch(kdtree.Point(query), k)
	if err != nil {
		return nil, err
	}

	points := make([]kdtree.Point, len(results))
	for i, r := range results {
		points[i] = r.Point
	}
	return points, nil
}

// TreeStatus describes one known tree.
type TreeStatus struct {
	Name         string
	Records      int
	InMemory     bool
	LastAccessed time.Time // zero when never accessed by this process
}

// Status summarizes every known tree, resident or not, in lexical order.
// Trees that exist only in the store are described from their headers;
// none is loaded.
type Status struct {
	ActiveTrees int
	Trees       []TreeStatus
}

// Status reports the cache and store view of all trees.
func (f *Forest) Status(ctx context.Context) (*Status, error) {
	start := time.Now()
	st, err := f.status(ctx)
	duration := time.Since(start)
	err = translateError(err)
	f.metrics.RecordStatus(duration, err)

	trees := 0
	if st != nil {
		trees = st.ActiveTrees
	}
	f.logger.LogStatus(ctx, trees, err)
	return st, err
}

func (f *Forest) status(ctx context.Context) (*Status, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}

	entries, err := f.cache.Status(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		ActiveTrees: len(entries),
		Trees:       make([]TreeStatus, len(entries)),
	}
	for i, e := range entries {
		st.Trees[i] = TreeStatus{
			Name:         e.Name,
			Records:      int(e.Records),
			InMemory:     e.Resident,
			LastAccessed: e.LastAccess,
		}
	}
	return st, nil
}

// Close drops resident trees and marks the Forest unusable. Writes are
// write-through, so there is nothing to flush. Callers must ensure no
// operations are in flight. Safe to call multiple times.
func (f *Forest) Close() error {
	if f == nil || f.closed.Swap(true) {
		return nil
	}
	err := f.cache.Close()
	f.logger.Info("forest closed")
	return err
}

// MemoryUsage returns the bytes currently charged for resident trees.
func (f *Forest) MemoryUsage() int64 {
	return f.rc.MemoryUsage()
}

// MemoryBudget returns the configured resident memory budget.
func (f *Forest) MemoryBudget() int64 {
	return f.rc.MemoryBudget()
}

// CacheStats returns cache hit, miss, and eviction counters.
func (f *Forest) CacheStats() (hits, misses, evictions int64) {
	return f.cache.Stats()
}

func validateTreeName(name string) error {
	if !treeNameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrTreeName, name)
	}
	return nil
}

func (f *Forest) validatePoint(p []float64) error {
	if len(p) == 0 {
		return ErrEmptyPoint
	}
	if len(p) > f.limits.MaxDimension {
		return fmt.Errorf("%w: dimension %d exceeds maximum %d", ErrLimitExceeded, len(p), f.limits.MaxDimension)
	}
	return nil
}

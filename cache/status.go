package cache

import (
	"context"
	"sort"
	"time"
)

// TreeStatus describes one known tree.
type TreeStatus struct {
	Name       string
	Resident   bool
	Records    uint32
	Dimension  uint32
	LastAccess time.Time // zero when never accessed by this process
}

// Status lists every known tree in lexical order: resident and evicted
// entries from the cache plus persisted trees this process has never
// touched. Untouched trees are described from their headers alone; Status
// never loads a tree and never waits behind an in-flight operation.
func (m *Manager) Status(ctx context.Context) ([]TreeStatus, error) {
	m.mu.Lock()
	statuses := make([]TreeStatus, 0, len(m.items))
	seen := make(map[string]struct{}, len(m.items))
	for name, e := range m.items {
		seen[name] = struct{}{}
		statuses = append(statuses, TreeStatus{
			Name:       name,
			Resident:   e.resident,
			Records:    e.records,
			Dimension:  e.dimension,
			LastAccess: e.lastAccess,
		})
	}
	m.mu.Unlock()

	names, err := m.pm.ListTrees(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		hdr, err := m.pm.ReadMeta(ctx, name)
		if err != nil {
			// Unreadable blobs surface through query errors, not here.
			continue
		}
		statuses = append(statuses, TreeStatus{
			Name:      name,
			Records:   hdr.Count,
			Dimension: hdr.Dimension,
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses, nil
}

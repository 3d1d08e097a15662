// Package cache keeps KD-trees resident in memory under a byte budget.
//
// The Manager loads trees from the blob store on first access and evicts
// the least recently used ones when the budget is exceeded. Eviction is
// safe because writes are persisted before they are acknowledged: dropping
// a resident tree never loses data, and the next access reloads it
// transparently.
//
// Access runs through handles. A handle pins its tree, so an in-flight
// insert or search is never evicted underneath the caller, and operations
// on distinct trees proceed in parallel while operations on the same tree
// serialize.
package cache

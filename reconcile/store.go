// Package reconcile owns the process-wide item state and the refresh cycle
// that keeps it current. The collection and the pending set are mutated only
// through the engine's commit points; everything else reads copies.
package reconcile

import (
	"sort"
	"sync"

	"github.com/pevans/newswire"
)

// Store holds the authoritative item collection and the staged pending set.
// The collection is strictly sorted by publication time descending, with ID
// ascending as the tie-break, and IDs are unique across the sequence. All
// methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	items   []newswire.Item
	pending []newswire.Item
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Items returns a copy of the current collection.
func (s *Store) Items() []newswire.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]newswire.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// PendingCount returns how many items are staged awaiting commit. Consumers
// only ever need the count; the staged content stays private until commit.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// ReplaceAll swaps in a new collection wholesale (first-load path). The
// input must already be sorted and deduplicated.
func (s *Store) ReplaceAll(items []newswire.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]newswire.Item, len(items))
	copy(s.items, items)
	s.pending = nil
}

// StageNew stages the subset of candidates whose ID is not already in the
// collection, replacing any previously staged batch (an uncommitted set is a
// one-step-behind view, so a fresher cycle supersedes it). Returns the
// staged count.
func (s *Store) StageNew(candidates []newswire.Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.items))
	for _, it := range s.items {
		known[it.ID] = true
	}

	var fresh []newswire.Item
	for _, it := range candidates {
		if !known[it.ID] {
			fresh = append(fresh, it)
		}
	}

	s.pending = fresh
	return len(fresh)
}

// CommitPending merges the staged batch into the collection, deduplicating
// against current entries (first-seen wins: a stored item's fields never
// change), re-sorts, and clears the pending set. Returns the items that
// became newly visible.
func (s *Store) CommitPending() []newswire.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	known := make(map[string]bool, len(s.items))
	for _, it := range s.items {
		known[it.ID] = true
	}

	var fresh []newswire.Item
	for _, it := range s.pending {
		if known[it.ID] {
			continue
		}
		known[it.ID] = true
		fresh = append(fresh, it)
	}

	s.items = append(fresh, s.items...)
	sortItems(s.items)
	s.pending = nil
	return fresh
}

// sortItems orders items newest-first. Ties on publication time break on ID
// ascending so the order is deterministic rather than relying on sort
// stability.
func sortItems(items []newswire.Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// dedupeSorted removes later duplicates from an already-sorted batch,
// keeping the first occurrence of each ID.
func dedupeSorted(items []newswire.Item) []newswire.Item {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

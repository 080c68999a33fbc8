// Package liveset holds the in-memory, always-current index of every
// known media item, read by the album grouper and the HTTP layer without
// touching sqlite.
package liveset

import (
	"sync"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
)

// Set is a concurrency-safe map[MediaId]media.Item. Reads take the
// read-lock and return a snapshot slice/copy; writes (startup seeding
// from the metadata cache, and the indexer pool, including its handling
// of Remove entries) take the write lock.
type Set struct {
	mu    sync.RWMutex
	items map[id.ID[id.Media]]media.Item
}

func New() *Set {
	return &Set{items: make(map[id.ID[id.Media]]media.Item)}
}

// Put inserts or replaces an item.
func (s *Set) Put(item media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Remove deletes an item, a no-op if it is not present.
func (s *Set) Remove(mediaID id.ID[id.Media]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, mediaID)
}

// Get returns a single item by id.
func (s *Set) Get(mediaID id.ID[id.Media]) (media.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[mediaID]
	return item, ok
}

// Items returns a snapshot slice of every known item. The slice is a copy;
// mutating it does not affect the Set.
func (s *Set) Items() []media.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]media.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

// Len reports how many items are currently held.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

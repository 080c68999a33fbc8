package scan

import (
	"container/heap"
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/pica-gallery/pica/internal/id"
)

// entryHeap is a max-heap over Entry: Remove entries always sort ahead of
// every Add entry (evicting a deleted item is cheap and should never wait
// behind a pile of indexing work), ties among Removes broken by seq so
// they drain in the order they were discovered; among Add entries, the
// scanner discovers newest files first, so indexing backfills a library
// newest-to-oldest, matching the order a user actually browses it in.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if (a.Kind == EntryRemove) != (b.Kind == EntryRemove) {
		return a.Kind == EntryRemove
	}
	if a.Kind == EntryRemove {
		return a.seq < b.seq
	}
	return a.Item.Timestamp.After(b.Item.Timestamp)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is the priority structure scan discovery feeds: a
// known-id bitmap for fast reconciliation against a fresh directory walk, a
// pending map for O(1) membership tests, and a timestamp-ordered heap for
// pop order. All three live behind a single mutex — there is no lock-free
// trick here, by design: contention is low (one scanner per source, one
// indexer pool draining it) and a single mutex keeps the three structures from ever
// observing each other out of sync.
type Queue struct {
	mu      sync.Mutex
	known   *roaring64.Bitmap
	pending map[id.ID[id.Media]]*Entry
	order   entryHeap
	seq     int64
}

// NewQueue creates an empty queue. Seed known media ids (typically loaded
// from the metadata cache at startup) with Seed.
func NewQueue() *Queue {
	return &Queue{
		known:   roaring64.New(),
		pending: make(map[id.ID[id.Media]]*Entry),
	}
}

// Seed marks ids as already known, so a subsequent Reconcile does not
// re-enqueue them as newly discovered.
func (q *Queue) Seed(ids []id.ID[id.Media]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, mid := range ids {
		q.known.Add(mediaKey(mid))
	}
}

// mediaKey reinterprets the first 8 bytes of a MediaId as a uint64 for use
// as a roaring64 bitmap entry.
func mediaKey(mid id.ID[id.Media]) uint64 {
	return uint64(mid.Int64())
}

// entryKey returns the id a pending Entry is keyed on in q.pending,
// regardless of which kind it is.
func entryKey(e *Entry) id.ID[id.Media] {
	if e.Kind == EntryRemove {
		return e.Removed
	}
	return e.Item.ID
}

// Reconcile compares a freshly-walked set of ids against the known set,
// enqueuing newly seen items as Add entries and ids that have disappeared
// from the filesystem since the last scan as Remove entries, so eviction
// from the live item set happens on the indexer pool's goroutines instead
// of the scanner's.
func (q *Queue) Reconcile(seen []Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	seenSet := roaring64.New()
	for _, item := range seen {
		seenSet.Add(mediaKey(item.ID))
	}

	added := roaring64.AndNot(seenSet, q.known)
	removedSet := roaring64.AndNot(q.known, seenSet)

	byKey := make(map[uint64]Item, len(seen))
	for _, item := range seen {
		byKey[mediaKey(item.ID)] = item
	}

	it := added.Iterator()
	for it.HasNext() {
		key := it.Next()
		item := byKey[key]
		q.pushLocked(item)
		q.known.Add(key)
	}

	rit := removedSet.Iterator()
	for rit.HasNext() {
		key := rit.Next()
		q.known.Remove(key)
		q.pushRemoveLocked(id.FromInt64[id.Media](int64(key)))
	}
}

func (q *Queue) pushLocked(item Item) {
	if _, exists := q.pending[item.ID]; exists {
		return
	}
	e := &Entry{Kind: EntryAdd, Item: item}
	q.pending[item.ID] = e
	heap.Push(&q.order, e)
}

func (q *Queue) pushRemoveLocked(mediaID id.ID[id.Media]) {
	if existing, exists := q.pending[mediaID]; exists && existing.Kind == EntryRemove {
		return
	}
	q.seq++
	e := &Entry{Kind: EntryRemove, Removed: mediaID, seq: q.seq}
	q.pending[mediaID] = e
	heap.Push(&q.order, e)
}

// Push enqueues a single item directly, outside of a full reconciliation
// pass, and marks its id as known.
func (q *Queue) Push(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.known.Contains(mediaKey(item.ID)) {
		q.known.Add(mediaKey(item.ID))
	}
	q.pushLocked(item)
}

// Pop removes and returns the highest-priority pending entry, or ok=false
// if the queue is empty.
func (q *Queue) Pop() (*Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.order).(*Entry)
	delete(q.pending, entryKey(e))
	return e, true
}

// Len reports the number of entries currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

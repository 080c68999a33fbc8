package scan

import (
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name string, ts time.Time) Item {
	mid := id.NewMedia("main", name, 100)
	return Item{ID: mid, Source: "main", RelPath: name, Size: 100, Timestamp: ts}
}

func TestQueuePopsNewestFirst(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	old := item("a.jpg", now.Add(-time.Hour))
	newer := item("b.jpg", now)

	q.Reconcile([]Item{old, newer})

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, EntryAdd, first.Kind)
	assert.Equal(t, "b.jpg", first.Item.RelPath)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a.jpg", second.Item.RelPath)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueReconcileDetectsRemovalAsMaxPriorityEntry(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	a := item("a.jpg", now)
	b := item("b.jpg", now.Add(time.Hour)) // newest, would normally pop first

	q.Reconcile([]Item{a, b})
	assert.Equal(t, 2, q.Len())

	q.Reconcile([]Item{a})
	assert.Equal(t, 3, q.Len(), "a Remove entry for b is enqueued alongside the two pending Adds")

	// the Remove entry outranks both pending Adds, even the newer one.
	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, EntryRemove, first.Kind)
	assert.Equal(t, b.ID, first.Removed)
}

func TestQueueReconcileIsIdempotentForKnownItems(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	a := item("a.jpg", now)

	q.Reconcile([]Item{a})
	assert.Equal(t, 1, q.Len())

	// seeing the same item again must not re-enqueue it
	q.Reconcile([]Item{a})
	assert.Equal(t, 1, q.Len())
}

func TestQueueSeedPreventsReenqueue(t *testing.T) {
	q := NewQueue()
	a := item("a.jpg", time.Now())
	q.Seed([]id.ID[id.Media]{a.ID})

	q.Reconcile([]Item{a})
	assert.Equal(t, 0, q.Len())
}

func TestQueueRemoveEntriesDrainBeforeAdds(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	a := item("a.jpg", now)
	b := item("b.jpg", now)
	q.Reconcile([]Item{a, b})

	_, _ = q.Pop()
	_, _ = q.Pop()

	// b disappears, c is freshly discovered: the Remove for b must still
	// pop ahead of the Add for c even though c is newer.
	c := item("c.jpg", now.Add(time.Hour))
	q.Reconcile([]Item{a, c})

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, EntryRemove, first.Kind)
	assert.Equal(t, b.ID, first.Removed)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, EntryAdd, second.Kind)
	assert.Equal(t, "c.jpg", second.Item.RelPath)
}

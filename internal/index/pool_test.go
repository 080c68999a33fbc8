package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/geo"
	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/liveset"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/scan"
	"github.com/pica-gallery/pica/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, root string) (*Pool, *store.MetadataCache, *liveset.Set, *scan.Queue) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cache := store.NewMetadataCache(s)
	live := liveset.New()
	queue := scan.NewQueue()
	pool := New(queue, cache, live, parse.New(), geo.New(), SourceRoots{"main": root}, 1, nil, true, 0, 0)
	return pool, cache, live, queue
}

func TestIndexPublishesToLiveSetAndCache(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.png"), make([]byte, 100), 0o644))

	pool, cache, live, queue := newTestPool(t, root)

	mediaID := id.NewMedia("main", "a.png", 100)
	item := scan.Item{ID: mediaID, Source: "main", RelPath: "a.png", Size: 100, Timestamp: time.Now()}
	queue.Push(item)

	popped, ok := queue.Pop()
	require.True(t, ok)
	require.Equal(t, scan.EntryAdd, popped.Kind)
	require.NoError(t, pool.index(context.Background(), popped.Item))

	_, ok = live.Get(mediaID)
	assert.True(t, ok)

	all, err := cache.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a.png", all[0].RelPath)
}

func TestIndexSkipsItemsWithRecordedError(t *testing.T) {
	root := t.TempDir()
	pool, cache, live, _ := newTestPool(t, root)

	mediaID := id.NewMedia("main", "broken.jpg", 1)
	require.NoError(t, cache.MarkError(mediaID, "main", "broken.jpg", "previously failed"))

	item := scan.Item{ID: mediaID, Source: "main", RelPath: "broken.jpg", Size: 1, Timestamp: time.Now()}
	require.NoError(t, pool.index(context.Background(), item))

	_, ok := live.Get(mediaID)
	assert.False(t, ok, "an item with a recorded error must never be indexed")
}

func TestIndexReemitsFromCacheWithoutReparsing(t *testing.T) {
	root := t.TempDir()
	pool, cache, live, _ := newTestPool(t, root)

	mediaID := id.NewMedia("main", "a.png", 100)
	cached := media.Item{
		ID: mediaID, Source: "main", RelPath: "a.png", Size: 100,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Info:      media.Info{Width: 10, Height: 10, Type: media.TypeJPEG},
	}
	require.NoError(t, cache.Put(cached))

	// The source file does not exist on disk; if index re-parsed it, the
	// item would take the scan item's time.Now() timestamp instead of the
	// cached one. A cache hit must short-circuit before that.
	item := scan.Item{ID: mediaID, Source: "main", RelPath: "a.png", Size: 100, Timestamp: time.Now()}
	require.NoError(t, pool.index(context.Background(), item))

	got, ok := live.Get(mediaID)
	require.True(t, ok)
	assert.Equal(t, cached.Timestamp, got.Timestamp)
}

func TestLoopEvictsLiveSetOnRemoveEntry(t *testing.T) {
	root := t.TempDir()
	pool, _, live, queue := newTestPool(t, root)

	mediaID := id.NewMedia("main", "a.png", 100)
	live.Put(media.Item{ID: mediaID, Source: "main", RelPath: "a.png"})
	queue.Seed([]id.ID[id.Media]{mediaID})
	queue.Reconcile(nil) // nothing seen, so mediaID is reconciled away as a Remove entry

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() {
		pool.loop(ctx, 0)
	}()

	require.Eventually(t, func() bool {
		_, ok := live.Get(mediaID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pica.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMetadataCachePutIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	cache := NewMetadataCache(s)

	item := media.Item{
		ID:        id.NewMedia("main", "2024/a.jpg", 1234),
		Source:    "main",
		RelPath:   "2024/a.jpg",
		Size:      1234,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Info: media.Info{
			Width: 100, Height: 200, Type: media.TypeJPEG,
			Location: &media.Location{Latitude: 48.1, Longitude: 11.5, City: "Munich", Country: "Germany"},
		},
	}

	require.NoError(t, cache.Put(item))
	require.NoError(t, cache.Put(item))

	all, err := cache.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Munich", all[0].Info.Location.City)
}

func TestMetadataCacheErrorMemo(t *testing.T) {
	s := openTestStore(t)
	cache := NewMetadataCache(s)
	mediaID := id.NewMedia("main", "broken.cr3", 10)

	has, err := cache.HasError(mediaID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, cache.MarkError(mediaID, "main", "broken.cr3", "unsupported preview atom"))
	has, err = cache.HasError(mediaID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMetadataCacheGetReturnsPutItem(t *testing.T) {
	s := openTestStore(t)
	cache := NewMetadataCache(s)
	mediaID := id.NewMedia("main", "2024/a.jpg", 1234)

	_, ok, err := cache.Get(mediaID)
	require.NoError(t, err)
	assert.False(t, ok)

	item := media.Item{
		ID:        mediaID,
		Source:    "main",
		RelPath:   "2024/a.jpg",
		Size:      1234,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Info:      media.Info{Width: 100, Height: 200, Type: media.TypeJPEG},
	}
	require.NoError(t, cache.Put(item))

	got, ok, err := cache.Get(mediaID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item.RelPath, got.RelPath)
}

func TestMetadataCacheGetErrorReturnsReason(t *testing.T) {
	s := openTestStore(t)
	cache := NewMetadataCache(s)
	mediaID := id.NewMedia("main", "broken.cr3", 10)

	_, ok, err := cache.GetError(mediaID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.MarkError(mediaID, "main", "broken.cr3", "unsupported preview atom"))
	reason, ok, err := cache.GetError(mediaID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "unsupported preview atom", reason)
}

func TestBlobStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	blobs := NewBlobStore(s)
	mediaID := id.NewMedia("main", "a.jpg", 10)

	_, ok, err := blobs.Get(mediaID, 200)
	require.NoError(t, err)
	assert.False(t, ok)

	hash, err := blobs.Put(mediaID, 200, "image/jpeg", []byte("thumbnail-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	data, mime, ok, err := blobs.Get(mediaID, 200)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("thumbnail-bytes"), data)
}

func TestBlobStoreLastWriterWins(t *testing.T) {
	s := openTestStore(t)
	blobs := NewBlobStore(s)
	mediaID := id.NewMedia("main", "a.jpg", 10)

	_, err := blobs.Put(mediaID, 200, "image/jpeg", []byte("first"))
	require.NoError(t, err)
	_, err = blobs.Put(mediaID, 200, "image/jpeg", []byte("second"))
	require.NoError(t, err)

	data, _, ok, err := blobs.Get(mediaID, 200)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), data)
}

func TestSessionStoreExpiry(t *testing.T) {
	s := openTestStore(t)
	sessions := NewSessionStore(s)

	require.NoError(t, sessions.Create("tok1", "alice", time.Now().Add(time.Hour)))
	user, ok, err := sessions.Lookup("tok1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", user)

	require.NoError(t, sessions.Create("tok2", "bob", time.Now().Add(-time.Hour)))
	_, ok, err = sessions.Lookup("tok2")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := sessions.Sweep()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

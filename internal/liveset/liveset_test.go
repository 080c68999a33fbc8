package liveset

import (
	"testing"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/stretchr/testify/assert"
)

func TestSetPutGetRemove(t *testing.T) {
	s := New()
	mid := id.NewMedia("main", "a.jpg", 10)
	item := media.Item{ID: mid, RelPath: "a.jpg"}

	s.Put(item)
	got, ok := s.Get(mid)
	assert.True(t, ok)
	assert.Equal(t, "a.jpg", got.RelPath)
	assert.Equal(t, 1, s.Len())

	s.Remove(mid)
	_, ok = s.Get(mid)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestSetItemsIsSnapshot(t *testing.T) {
	s := New()
	mid := id.NewMedia("main", "a.jpg", 10)
	s.Put(media.Item{ID: mid, RelPath: "a.jpg"})

	items := s.Items()
	require := assert.New(t)
	require.Len(items, 1)

	s.Put(media.Item{ID: id.NewMedia("main", "b.jpg", 20), RelPath: "b.jpg"})
	require.Len(items, 1, "snapshot must not observe later writes")
}

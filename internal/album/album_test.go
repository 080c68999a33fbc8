package album

import (
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrouper(t *testing.T) *Grouper {
	t.Helper()
	g, err := New(`^\d{4}-\d{2}-\d{2}.*$`, `^\d{4}-\d{2}-\d{2}[\s_-]*`)
	require.NoError(t, err)
	return g
}

func TestGroupClassifiesByDeepestMatchingAncestor(t *testing.T) {
	g := newGrouper(t)
	now := time.Now()

	items := []media.Item{
		{RelPath: "2024-06-01 Vacation/day1/a.jpg", Timestamp: now.Add(-time.Hour)},
		{RelPath: "2024-06-01 Vacation/day1/b.jpg", Timestamp: now},
		{RelPath: "2024-05-01 Birthday/c.jpg", Timestamp: now.Add(-48 * time.Hour)},
		{RelPath: "misc/unrelated.jpg", Timestamp: now},
	}

	albums := g.Group(items)
	require.Len(t, albums, 2)

	// oldest album first
	assert.Equal(t, "Birthday", albums[0].Name)
	assert.Equal(t, "Vacation", albums[1].Name)

	vacation := albums[1]
	require.Len(t, vacation.Items, 2)
	// newest item first within the album, and used as the cover
	assert.Equal(t, "2024-06-01 Vacation/day1/b.jpg", vacation.Items[0].RelPath)
	assert.Equal(t, vacation.Items[0], vacation.Cover)
}

func TestGroupSkipsItemsWithNoMatchingAncestor(t *testing.T) {
	g := newGrouper(t)
	items := []media.Item{{RelPath: "random/a.jpg", Timestamp: time.Now()}}
	albums := g.Group(items)
	assert.Empty(t, albums)
}

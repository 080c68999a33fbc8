// Package album implements the pure, derive-on-read album grouping
// Albums are never persisted: every call
// recomputes them from whatever media.Item slice it is given, typically a
// liveset.Set snapshot.
package album

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
)

// Grouper classifies items into albums by walking each item's ancestor
// directories deepest-first and matching them against a configured
// pattern.
type Grouper struct {
	classify   *regexp.Regexp
	stripTitle *regexp.Regexp
}

func New(pattern, stripTitle string) (*Grouper, error) {
	classify, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	strip, err := regexp.Compile(stripTitle)
	if err != nil {
		return nil, err
	}
	return &Grouper{classify: classify, stripTitle: strip}, nil
}

// classifyAsAlbum walks relpath's ancestor directories from deepest to
// shallowest, returning the first one matching the configured pattern, or
// ok=false if none does (the item then belongs to no album).
func (g *Grouper) classifyAsAlbum(relpath string) (dir string, ok bool) {
	dir = path.Dir(relpath)
	for dir != "." && dir != "/" {
		base := path.Base(dir)
		if g.classify.MatchString(base) {
			return dir, true
		}
		dir = path.Dir(dir)
	}
	return "", false
}

// stripTitleFrom removes the configured prefix pattern from a directory
// name to produce a user-facing album title.
func (g *Grouper) stripTitleFrom(name string) string {
	return strings.TrimSpace(g.stripTitle.ReplaceAllString(name, ""))
}

// Group classifies items into albums: each item is assigned to the
// deepest matching ancestor directory, items within an album are sorted
// newest-first, the first item becomes the cover, and the resulting
// albums are sorted oldest-first overall.
func (g *Grouper) Group(items []media.Item) []media.Album {
	byDir := make(map[string][]media.Item)
	var order []string

	for _, item := range items {
		dir, ok := g.classifyAsAlbum(item.RelPath)
		if !ok {
			continue
		}
		if _, seen := byDir[dir]; !seen {
			order = append(order, dir)
		}
		byDir[dir] = append(byDir[dir], item)
	}

	albums := make([]media.Album, 0, len(order))
	for _, dir := range order {
		albumItems := byDir[dir]
		sort.Slice(albumItems, func(i, j int) bool {
			return albumItems[i].Timestamp.After(albumItems[j].Timestamp)
		})

		base := path.Base(dir)
		name := g.stripTitleFrom(base)
		if name == "" {
			name = base
		}
		if name == "" {
			name = "Unknown"
		}
		albums = append(albums, media.Album{
			ID:        id.NewAlbum(dir),
			Name:      name,
			Timestamp: albumItems[0].Timestamp,
			RelPath:   dir,
			Items:     albumItems,
			Cover:     albumItems[0],
		})
	}

	sort.Slice(albums, func(i, j int) bool {
		return albums[i].Timestamp.Before(albums[j].Timestamp)
	})

	return albums
}

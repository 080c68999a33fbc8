package httpweb

import (
	"path"
	"time"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
)

// MediaItemView is the JSON shape returned for a single media.Item.
type MediaItemView struct {
	ID        id.ID[id.Media] `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Location  *LocationView   `json:"location,omitempty"`
}

// LocationView is the JSON shape for a reverse-geocoded GPS location.
type LocationView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

func newMediaItemView(item media.Item) MediaItemView {
	view := MediaItemView{
		ID:        item.ID,
		Name:      path.Base(item.RelPath),
		Timestamp: item.Timestamp,
		Width:     item.Info.Width,
		Height:    item.Info.Height,
	}
	if item.Info.Location != nil {
		loc := item.Info.Location
		view.Location = &LocationView{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			City:      loc.City,
			Country:   loc.Country,
		}
	}
	return view
}

// AlbumView is the JSON shape returned for a derived album. n caps how
// many items are included: the index-only `/api/albums` list returns
// previews (n=0, so only the cover is visible via the top-level fields),
// `/api/albums/full` and `/api/albums/:id` return every item.
type AlbumView struct {
	ID        id.ID[id.Album] `json:"id"`
	Name      string          `json:"name"`
	Items     []MediaItemView `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
	RelPath   string          `json:"relpath"`
	Cover     MediaItemView   `json:"cover"`
}

func newAlbumView(album media.Album, n int) AlbumView {
	if n > len(album.Items) {
		n = len(album.Items)
	}
	items := make([]MediaItemView, 0, n)
	for _, item := range album.Items[:n] {
		items = append(items, newMediaItemView(item))
	}
	return AlbumView{
		ID:        album.ID,
		Name:      album.Name,
		Items:     items,
		Timestamp: album.Timestamp,
		RelPath:   album.RelPath,
		Cover:     newMediaItemView(album.Cover),
	}
}

// ExifView is the `/api/media/:id/exif` response body.
type ExifView struct {
	Item MediaItemView     `json:"item"`
	Exif map[string]string `json:"exif,omitempty"`
}

// StreamView is the `/api/stream` response body.
type StreamView struct {
	Items []MediaItemView `json:"items"`
}

// Package media holds the data-model types shared by every subsystem:
// scanner, indexer, rendition store, live item set, album grouper and the
// HTTP layer all operate on these same structs.
package media

import (
	"time"

	"github.com/pica-gallery/pica/internal/id"
)

// Type is the dispatch key the parser façade and the scale queue use to
// decide how a file's bytes are decoded.
type Type string

const (
	TypeJPEG Type = "jpeg"
	TypePNG  Type = "png"
	TypeAVIF Type = "avif"
	TypeARW  Type = "arw"
	TypeCR3  Type = "cr3"
)

// TypeOf maps a lowercase file extension (without the dot) to a Type, or
// reports ok=false when the extension is not indexable.
func TypeOf(ext string) (Type, bool) {
	switch ext {
	case "jpg", "jpeg":
		return TypeJPEG, true
	case "png":
		return TypePNG, true
	case "avif":
		return TypeAVIF, true
	case "arw":
		return TypeARW, true
	case "cr3":
		return TypeCR3, true
	default:
		return "", false
	}
}

// Orientation is the 8-way EXIF orientation enum.
type Orientation int

const (
	OrientationOriginal Orientation = iota
	OrientationFlipH
	OrientationRotate180
	OrientationFlipHRotate180
	OrientationFlipHRotate270
	OrientationRotate90
	OrientationFlipHRotate90
	OrientationRotate270
)

// FromEXIF maps a raw EXIF orientation tag value (1..8) to Orientation.
func FromEXIF(v int) Orientation {
	switch v {
	case 1:
		return OrientationOriginal
	case 2:
		return OrientationFlipH
	case 3:
		return OrientationRotate180
	case 4:
		return OrientationFlipHRotate180
	case 5:
		return OrientationFlipHRotate270
	case 6:
		return OrientationRotate90
	case 7:
		return OrientationFlipHRotate90
	case 8:
		return OrientationRotate270
	default:
		return OrientationOriginal
	}
}

// Transposed reports whether width/height are swapped relative to the
// stored pixel buffer. Resolved per the decision recorded in SPEC_FULL.md
// §9 / DESIGN.md: Rotate180 is not transposed.
func (o Orientation) Transposed() bool {
	switch o {
	case OrientationRotate90, OrientationRotate270,
		OrientationFlipHRotate90, OrientationFlipHRotate270:
		return true
	default:
		return false
	}
}

// Location is a resolved GPS coordinate, optionally reverse-geocoded to the
// nearest known city.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
}

// Info is the derived metadata the indexer attaches to every MediaItem.
type Info struct {
	Width       int
	Height      int
	Type        Type
	Orientation Orientation
	Location    *Location
}

// Item is one piece of media as held in the live item set and persisted in
// the metadata cache.
type Item struct {
	ID        id.ID[id.Media]
	Source    string
	RelPath   string
	Size      int64
	Timestamp time.Time
	Info      Info
	// RawPair is the relpath of a sibling raw file (e.g. a .cr3) collapsed
	// into this item during scanning, if any.
	RawPair string
}

// Album is a derived, never-persisted grouping of Items sharing a
// directory-based classification.
type Album struct {
	ID        id.ID[id.Album]
	Name      string
	Timestamp time.Time
	RelPath   string
	Items     []Item
	Cover     Item
}

package parse

import (
	"fmt"
	"os"
	"time"

	"github.com/pica-gallery/pica/internal/media"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifTimeLayout is the format EXIF DateTimeOriginal tags use, always
// interpreted as UTC: the original service never attempted timezone
// resolution and neither do we.
const exifTimeLayout = "2006:01:02 15:04:05"

func summarizeEXIF(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("parse: open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF segment at all is common (PNG masquerading with a .jpg
		// extension, a re-encoded JPEG with stripped metadata) and is not
		// an error the indexer should record against the item.
		return Summary{}, nil
	}

	summary := Summary{Orientation: media.OrientationOriginal}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			summary.Orientation = media.FromEXIF(v)
		}
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if t, err := time.ParseInLocation(exifTimeLayout, s, time.UTC); err == nil {
				summary.Timestamp = &t
			}
		}
	}

	if lat, lon, err := x.LatLong(); err == nil {
		summary.Location = &media.Location{Latitude: lat, Longitude: lon}
	}

	if w, h, ok := exifDimensions(x); ok {
		summary.Width, summary.Height = w, h
	}

	return summary, nil
}

// tagCollector implements exif.Walker, collecting every tag's rendered
// string value keyed by its field name.
type tagCollector map[string]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c[string(name)] = tag.String()
	return nil
}

// rawEXIFTags dumps every tag in path's EXIF segment, rendered to its
// string form, for the raw-tag API response.
func rawEXIFTags(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse: open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, nil
	}

	tags := make(tagCollector)
	if err := x.Walk(tags); err != nil {
		return nil, fmt.Errorf("parse: walk exif tags: %w", err)
	}
	return tags, nil
}

func exifDimensions(x *exif.Exif) (int, int, bool) {
	wTag, errW := x.Get(exif.PixelXDimension)
	hTag, errH := x.Get(exif.PixelYDimension)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	w, errW := wTag.Int(0)
	h, errH := hTag.Int(0)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

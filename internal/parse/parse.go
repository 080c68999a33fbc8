// Package parse implements the parser façade: extension-based dispatch to
// a decodable-image reader plus an EXIF summary, for each of the media
// types the indexer needs to derive metadata from.
package parse

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pica-gallery/pica/internal/media"
)

// Preview is a decodable artifact produced by a parser: either the
// original file reopened, or — for raw formats — an embedded JPEG preview
// spilled to a temp file. Close removes any temp file it created.
type Preview struct {
	io.ReadCloser
	cleanup func()
}

func (p *Preview) Close() error {
	err := p.ReadCloser.Close()
	if p.cleanup != nil {
		p.cleanup()
	}
	return err
}

// Summary is everything the indexer derives from a file beyond its path
// and size.
type Summary struct {
	Width       int
	Height      int
	Orientation media.Orientation
	Timestamp   *time.Time
	Location    *media.Location
}

// Parser dispatches on media.Type to produce a decodable preview and an
// EXIF summary for a file.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Preview opens a decodable image reader for path according to typ: the
// original bytes for generic formats, or an extracted embedded preview for
// CR3/ARW raws.
func (p *Parser) Preview(path string, typ media.Type) (*Preview, error) {
	switch typ {
	case media.TypeCR3:
		return previewCR3(path)
	case media.TypeARW:
		return previewARW(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("parse: open %s: %w", path, err)
		}
		return &Preview{ReadCloser: f}, nil
	}
}

// Summarize extracts EXIF-derived metadata (orientation, GPS, capture
// time) from path. Formats without usable EXIF (PNG, AVIF) return a zero
// Summary and a nil error — absence of EXIF is not itself an error.
func (p *Parser) Summarize(path string, typ media.Type) (Summary, error) {
	switch typ {
	case media.TypeJPEG, media.TypeARW, media.TypeCR3:
		return summarizeEXIF(path)
	default:
		return Summary{}, nil
	}
}

// RawTags dumps every EXIF tag found at path as tagName -> rendered
// string, for display in the `/api/media/:id/exif` response. Formats
// without usable EXIF return a nil map and a nil error.
func (p *Parser) RawTags(path string, typ media.Type) (map[string]string, error) {
	switch typ {
	case media.TypeJPEG, media.TypeARW, media.TypeCR3:
		return rawEXIFTags(path)
	default:
		return nil, nil
	}
}

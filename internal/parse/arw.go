package parse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/tiff"
)

// arwHeaderSize bounds how much of the file is parsed as TIFF/EXIF: Sony's
// preview-image pointer tags live in the first IFD, well within the first
// megabyte even for high-megapixel sensors.
const arwHeaderSize = 1 << 20

// Sony/TIFF tag ids giving the offset and length of the embedded full-size
// JPEG preview (PreviewImageStart, PreviewImageLength).
const (
	tagPreviewImageStart  = 513
	tagPreviewImageLength = 514
)

func previewARW(path string) (*Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse: arw open %s: %w", path, err)
	}

	header := make([]byte, arwHeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, fmt.Errorf("parse: arw read header %s: %w", path, err)
	}
	header = header[:n]

	t, err := tiff.Decode(bytes.NewReader(header))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse: arw decode tiff %s: %w", path, err)
	}

	start, err := tagInt(t, tagPreviewImageStart)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse: arw %s: %w", path, err)
	}
	length, err := tagInt(t, tagPreviewImageLength)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse: arw %s: %w", path, err)
	}

	if _, err := f.Seek(int64(start), io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return spillToTemp(io.LimitReader(f, int64(length)), f)
}

// tagInt looks up a tag by its raw numeric id across every IFD in t,
// decoding its raw value with the TIFF's own byte order.
func tagInt(t *tiff.Tiff, tagID int) (int, error) {
	order := t.Order
	if order == nil {
		order = binary.LittleEndian // Sony ARW files are little-endian (II).
	}
	for _, ifd := range t.Dirs {
		for _, field := range ifd.Fields {
			if int(field.Tag) != tagID {
				continue
			}
			switch len(field.Val) {
			case 2:
				return int(order.Uint16(field.Val)), nil
			case 4:
				return int(order.Uint32(field.Val)), nil
			default:
				return 0, fmt.Errorf("tag %d: unexpected value width %d", tagID, len(field.Val))
			}
		}
	}
	return 0, fmt.Errorf("tag %d not found", tagID)
}

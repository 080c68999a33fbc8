package parse

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// cr3PreviewUUID identifies the uuid box within a CR3 (ISO-BMFF) container
// that holds Canon's embedded preview metadata.
var cr3PreviewUUID = mustHex("eaf42b5e1c984b88b9fbb7dc406e4d16")

func mustHex(s string) [16]byte {
	var out [16]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		panic("parse: bad cr3 uuid constant")
	}
	copy(out[:], b)
	return out
}

// previewCR3 locates the JPEG preview embedded in a Canon CR3 file by
// walking its ISO-BMFF box structure: find the `uuid` box tagged with
// cr3PreviewUUID, descend into its child `PRVW` box, skip a fixed 12-byte
// header, then read a big-endian uint32 giving the JPEG's length.
func previewCR3(path string) (*Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse: cr3 open %s: %w", path, err)
	}

	box, err := findBox(f, 0, fileSize(f), "uuid", func(payload io.ReadSeeker) bool {
		var got [16]byte
		if _, err := io.ReadFull(payload, got[:]); err != nil {
			return false
		}
		return got == cr3PreviewUUID
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	if box == nil {
		f.Close()
		return nil, fmt.Errorf("parse: cr3 %s: no preview uuid box found", path)
	}

	// The uuid box's payload begins with the 16-byte uuid itself, then a
	// nested box structure; PRVW is a child box within that payload.
	prvw, err := findBox(f, box.contentStart+16, box.end, "PRVW", nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	if prvw == nil {
		f.Close()
		return nil, fmt.Errorf("parse: cr3 %s: no PRVW box found", path)
	}

	if _, err := f.Seek(prvw.contentStart+12, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("parse: cr3 %s: read preview length: %w", path, err)
	}
	jpegLen := int64(binary.BigEndian.Uint32(lenBuf[:]))

	return spillToTemp(io.LimitReader(f, jpegLen), f)
}

type box struct {
	kind         string
	start        int64 // offset of the box's size field
	contentStart int64 // offset just past the box header
	end          int64 // offset one past the box's last byte
}

func fileSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// findBox walks sibling ISO-BMFF boxes in [start, end), returning the first
// one whose 4-character type matches kind. When match is non-nil, the box
// is accepted only if match returns true after being given a reader
// positioned at the start of its payload (the reader is left wherever
// match stopped; callers seek using the returned box offsets).
func findBox(r io.ReadSeeker, start, end int64, kind string, match func(io.ReadSeeker) bool) (*box, error) {
	pos := start
	for pos < end {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, nil
			}
			return nil, err
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		typ := string(header[4:8])
		contentStart := pos + 8

		if size == 1 {
			// 64-bit extended size follows immediately.
			var ext [8]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return nil, err
			}
			size = int64(binary.BigEndian.Uint64(ext[:]))
			contentStart += 8
		}
		if size == 0 {
			size = end - pos
		}
		boxEnd := pos + size

		if typ == kind {
			if match == nil {
				return &box{kind: typ, start: pos, contentStart: contentStart, end: boxEnd}, nil
			}
			if _, err := r.Seek(contentStart, io.SeekStart); err != nil {
				return nil, err
			}
			if match(r) {
				return &box{kind: typ, start: pos, contentStart: contentStart, end: boxEnd}, nil
			}
		}

		pos = boxEnd
	}
	return nil, nil
}

// spillToTemp copies r into a new temp file and returns a Preview reading
// from it, closing and removing the temp file (and closing backing) when
// the Preview itself is closed.
func spillToTemp(r io.Reader, backing *os.File) (*Preview, error) {
	tmp, err := os.CreateTemp("", "pica-preview-*.jpg")
	if err != nil {
		backing.Close()
		return nil, fmt.Errorf("parse: create temp preview: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		backing.Close()
		return nil, fmt.Errorf("parse: spill preview: %w", err)
	}
	backing.Close()
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	name := tmp.Name()
	return &Preview{
		ReadCloser: tmp,
		cleanup:    func() { os.Remove(name) },
	}, nil
}

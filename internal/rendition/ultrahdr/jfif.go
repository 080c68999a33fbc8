// Package ultrahdr implements UltraHDR-aware rendition: detecting whether
// a JPEG carries a gain-map (dual exposure) payload, and re-muxing a
// primary + gainmap JPEG pair into one UltraHDR-compliant file. Grounded
// directly on the original service's ultrahdr-rs crate: a JFIF segment
// reader/writer, an MPF (Multi-Picture Format) segment describing the two
// embedded images, and an XMP container segment declaring the gain-map
// relationship.
package ultrahdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Marker is a JPEG segment marker byte (the byte following 0xFF).
type Marker byte

const (
	markerSOI  Marker = 0xD8
	markerEOI  Marker = 0xD9
	markerSOS  Marker = 0xDA
	markerAPP0 Marker = 0xE0
	markerAPP1 Marker = 0xE1 // XMP
	markerAPP2 Marker = 0xE2 // MPF
)

// Segment is one marker segment of a JPEG file (everything up to but not
// including entropy-coded scan data, which is read once SOS is reached).
type Segment struct {
	Marker  Marker
	Payload []byte // segment payload, excluding the 2-byte length field
}

// xmpSignature identifies an XMP APP1 segment's payload prefix.
var xmpSignature = []byte("http://ns.adobe.com/xap/1.0/\x00")

// mpfSignature identifies an MPF APP2 segment's payload prefix.
var mpfSignature = []byte("MPF\x00")

// Jpeg is a parsed JPEG file: its marker segments up to SOS, plus the raw
// entropy-coded scan data and any trailing bytes (EOI and beyond).
type Jpeg struct {
	Segments []Segment
	Scan     []byte // from the first SOS marker onward, including EOI
}

// Parse reads a JPEG file into its marker segments and scan data.
func Parse(r io.Reader) (*Jpeg, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || data[0] != 0xFF || Marker(data[1]) != markerSOI {
		return nil, fmt.Errorf("ultrahdr: not a JPEG (missing SOI)")
	}

	j := &Jpeg{Segments: []Segment{{Marker: markerSOI}}}
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF {
			return nil, fmt.Errorf("ultrahdr: expected marker at offset %d", pos)
		}
		marker := Marker(data[pos+1])
		if marker == markerSOS {
			j.Scan = data[pos:]
			return j, nil
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		payload := data[pos+4 : pos+2+length]
		j.Segments = append(j.Segments, Segment{Marker: marker, Payload: payload})
		pos += 2 + length
	}
	return nil, fmt.Errorf("ultrahdr: reached end of file before SOS")
}

// Write serializes the Jpeg back to its byte form.
func (j *Jpeg) Write(w io.Writer) error {
	for _, seg := range j.Segments {
		if _, err := w.Write([]byte{0xFF, byte(seg.Marker)}); err != nil {
			return err
		}
		if seg.Marker == markerSOI {
			continue
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(seg.Payload)+2))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := w.Write(seg.Payload); err != nil {
			return err
		}
	}
	_, err := w.Write(j.Scan)
	return err
}

// WithoutSegments returns a copy of j with every segment whose payload has
// one of the given prefixes removed. Used to strip existing MPF/XMP
// segments before injecting new ones.
func (j *Jpeg) WithoutSegments(prefixes ...[]byte) *Jpeg {
	out := &Jpeg{Scan: j.Scan}
	for _, seg := range j.Segments {
		drop := false
		for _, prefix := range prefixes {
			if bytes.HasPrefix(seg.Payload, prefix) {
				drop = true
				break
			}
		}
		if !drop {
			out.Segments = append(out.Segments, seg)
		}
	}
	return out
}

// InsertAfterSOI inserts segments immediately after the SOI marker (the
// position APP1/APP2 metadata segments conventionally occupy).
func (j *Jpeg) InsertAfterSOI(segments ...Segment) {
	out := make([]Segment, 0, len(j.Segments)+len(segments))
	out = append(out, j.Segments[0]) // SOI
	out = append(out, segments...)
	out = append(out, j.Segments[1:]...)
	j.Segments = out
}

// IsUltraHDR reports whether j already carries both an MPF segment and an
// XMP segment whose Container:Directory declares at least two
// Container:Item entries — the two markers the original format detection
// looked for together.
func IsUltraHDR(j *Jpeg) bool {
	hasMPF, hasGainmapXMP := false, false
	for _, seg := range j.Segments {
		if bytes.HasPrefix(seg.Payload, mpfSignature) {
			hasMPF = true
		}
		if bytes.HasPrefix(seg.Payload, xmpSignature) &&
			bytes.Contains(seg.Payload, []byte("<Container:Directory")) &&
			bytes.Count(seg.Payload, []byte("<Container:Item")) >= 2 {
			hasGainmapXMP = true
		}
	}
	return hasMPF && hasGainmapXMP
}

package ultrahdr

import (
	"bytes"
	"fmt"
	"io"
)

// Mux re-muxes a primary JPEG and its gain-map JPEG into a single
// UltraHDR-compliant file: any pre-existing MPF/XMP segments are stripped
// from the primary, then a fresh XMP container and MPF index describing
// the pair are injected right after SOI, and the gain-map bytes are
// appended verbatim after the primary's own EOI.
func Mux(primary, gainmap []byte, gainmapMime string) ([]byte, error) {
	j, err := Parse(bytes.NewReader(primary))
	if err != nil {
		return nil, fmt.Errorf("ultrahdr: parse primary: %w", err)
	}
	j = j.WithoutSegments(mpfSignature, xmpSignature)

	xmp := BuildXMP(gainmapMime, len(gainmap))
	j.InsertAfterSOI(Segment{Marker: markerAPP1, Payload: xmp})

	var primaryBuf bytes.Buffer
	if err := j.Write(&primaryBuf); err != nil {
		return nil, fmt.Errorf("ultrahdr: serialize primary: %w", err)
	}

	// The MPF segment itself (marker, length and payload) becomes part of
	// the primary, so its bytes count towards the recorded primary size.
	mpfSegmentLen := uint32(4 + len(BuildMPF(0, 0)))
	mpf := BuildMPF(uint32(primaryBuf.Len())+mpfSegmentLen, uint32(len(gainmap)))
	withMPF, err := insertAPP2(primaryBuf.Bytes(), mpf)
	if err != nil {
		return nil, fmt.Errorf("ultrahdr: insert MPF: %w", err)
	}

	out := make([]byte, 0, len(withMPF)+len(gainmap))
	out = append(out, withMPF...)
	out = append(out, gainmap...)
	return out, nil
}

// insertAPP2 re-parses encoded and inserts an MPF APP2 segment right after
// SOI, ahead of the APP1 XMP segment Mux already placed there. Splitting
// this from Mux's first pass keeps the MPF size field accurate: the MPF
// payload itself must declare the primary's total byte length including
// the XMP segment, so it can only be computed once that segment exists.
func insertAPP2(encoded []byte, mpf []byte) ([]byte, error) {
	j, err := Parse(bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	segments := make([]Segment, 0, len(j.Segments)+1)
	segments = append(segments, j.Segments[0])
	segments = append(segments, Segment{Marker: markerAPP2, Payload: mpf})
	segments = append(segments, j.Segments[1:]...)
	j.Segments = segments

	var buf bytes.Buffer
	if err := j.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Detect reports whether r holds a JPEG already carrying UltraHDR gain-map
// metadata, without fully decoding the image.
func Detect(r io.Reader) (bool, error) {
	j, err := Parse(r)
	if err != nil {
		return false, err
	}
	return IsUltraHDR(j), nil
}

// Split separates an already-muxed UltraHDR file (as produced by Mux) back
// into its primary and gain-map JPEG byte streams, using the MPF index's
// recorded offsets rather than re-scanning for a second SOI — a file's
// gain-map is itself a complete JPEG and a naive second-SOI search would
// also match a thumbnail embedded inside the primary's own EXIF block.
func Split(data []byte) (primary, gainmap []byte, err error) {
	j, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	var mpf []byte
	for _, seg := range j.Segments {
		if bytes.HasPrefix(seg.Payload, mpfSignature) {
			mpf = seg.Payload
			break
		}
	}
	if mpf == nil {
		return nil, nil, fmt.Errorf("ultrahdr: no MPF segment present")
	}

	primarySize, err := mpfEntrySize(mpf, mpfTypePrimary)
	if err != nil {
		return nil, nil, err
	}
	if int(primarySize) > len(data) {
		return nil, nil, fmt.Errorf("ultrahdr: MPF primary size exceeds file length")
	}
	return data[:primarySize], data[primarySize:], nil
}

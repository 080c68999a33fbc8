package ultrahdr

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var errMalformedMPF = errors.New("ultrahdr: malformed MPF segment")

// mpfEntry describes one image within an MPF image set: its type (primary
// or gain-map auxiliary), byte size and offset relative to the start of
// the MPF segment's endianness marker.
type mpfEntry struct {
	typeCode uint32
	size     uint32
	offset   uint32
}

const (
	mpfTypePrimary  = 0x030000 // Baseline MP Primary Image
	mpfTypeAuxiliary = 0x000000
)

// mpfEndianOffset is the file offset of the MP Endian field when the MPF
// segment directly follows SOI, as Mux places it: SOI (2) + APP2 marker
// and length (4) + "MPF\x00" (4).
const mpfEndianOffset = 10

// BuildMPF builds the MPF APP2 segment payload describing a two-image set:
// the primary JPEG (offset 0, implicit) and one auxiliary image (the
// gain-map) whose encoded bytes start primarySize bytes from the start of
// the file. The gain-map's recorded offset is relative to the MP Endian
// field, assuming the MPF segment directly follows SOI.
func BuildMPF(primarySize, gainmapSize uint32) []byte {
	entries := []mpfEntry{
		{typeCode: mpfTypePrimary, size: primarySize, offset: 0},
		{typeCode: mpfTypeAuxiliary, size: gainmapSize, offset: primarySize - mpfEndianOffset},
	}

	var idx bytes.Buffer
	idx.Write([]byte{'I', 'I', 0x2A, 0x00})
	binary.Write(&idx, binary.LittleEndian, uint32(8)) // IFD offset

	// MP Index IFD: count, then 3 required tags (count, types, entries),
	// then next-IFD offset (0 = none).
	binary.Write(&idx, binary.LittleEndian, uint16(3))

	entryListOffset := uint32(idx.Len() + 3*12 + 4)

	writeTag(&idx, 0xB000, 7, 4, 0x30303130) // MP Format Version "0100" (ASCII bytes, little-endian word)
	writeTag(&idx, 0xB001, 4, 1, uint32(len(entries)))
	writeTag(&idx, 0xB002, 7, uint32(len(entries)*16), entryListOffset)

	binary.Write(&idx, binary.LittleEndian, uint32(0)) // no next IFD

	for _, e := range entries {
		binary.Write(&idx, binary.LittleEndian, e.typeCode)
		binary.Write(&idx, binary.LittleEndian, e.size)
		binary.Write(&idx, binary.LittleEndian, e.offset)
		binary.Write(&idx, binary.LittleEndian, uint32(0)) // dependent image 1 entry
	}

	return append(append([]byte{}, mpfSignature...), idx.Bytes()...)
}

// writeTag appends one 12-byte TIFF IFD entry: tag id, type, component
// count, and a value/offset word (valid only for types that fit in 4
// bytes, which is all MPF uses here).
func writeTag(buf *bytes.Buffer, tag uint16, typ uint16, count uint32, value uint32) {
	binary.Write(buf, binary.LittleEndian, tag)
	binary.Write(buf, binary.LittleEndian, typ)
	binary.Write(buf, binary.LittleEndian, count)
	binary.Write(buf, binary.LittleEndian, value)
}

// mpfEntrySize walks the MP Entry list built by BuildMPF and returns the
// recorded size of the first image whose type code matches want.
func mpfEntrySize(payload []byte, want uint32) (uint32, error) {
	if len(payload) < len(mpfSignature)+8 {
		return 0, errMalformedMPF
	}
	body := payload[len(mpfSignature):] // "II" + magic + IFD offset
	ifdOffset := binary.LittleEndian.Uint32(body[4:8])
	if int(ifdOffset)+2 > len(body) {
		return 0, errMalformedMPF
	}

	count := binary.LittleEndian.Uint16(body[ifdOffset : ifdOffset+2])
	entryListOffset := uint32(0)
	pos := ifdOffset + 2
	for i := 0; i < int(count); i++ {
		if int(pos)+12 > len(body) {
			return 0, errMalformedMPF
		}
		tag := binary.LittleEndian.Uint16(body[pos : pos+2])
		value := binary.LittleEndian.Uint32(body[pos+8 : pos+12])
		if tag == 0xB002 {
			entryListOffset = value
		}
		pos += 12
	}
	if entryListOffset == 0 || int(entryListOffset)+16 > len(body) {
		return 0, errMalformedMPF
	}

	entryPos := entryListOffset
	for int(entryPos)+16 <= len(body) {
		typeCode := binary.LittleEndian.Uint32(body[entryPos : entryPos+4])
		size := binary.LittleEndian.Uint32(body[entryPos+4 : entryPos+8])
		if typeCode == want {
			return size, nil
		}
		entryPos += 16
	}
	return 0, errMalformedMPF
}

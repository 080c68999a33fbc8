package id

import (
	"crypto/sha1"
	"encoding/binary"
)

// NewMedia derives a MediaId from the source name it was discovered under,
// its path relative to that source, and its file size in bytes. The size is
// folded in so that a file overwritten in place (same path, different
// bytes) gets a fresh id rather than silently reusing stale metadata.
func NewMedia(source, relpath string, size int64) ID[Media] {
	h := sha1.New()
	h.Write([]byte(source))
	h.Write([]byte(relpath))
	var sz [8]byte
	binary.BigEndian.PutUint64(sz[:], uint64(size))
	h.Write(sz[:])
	sum := h.Sum(nil)
	return FromBytes[Media](sum)
}

// NewAlbum derives an AlbumId from an album's path relative to its source,
// forcing the high bit of the first byte to 0 so that, within a namespace
// that mixes MediaIds and AlbumIds, an AlbumId's raw bytes never collide
// with the high half of the MediaId space.
func NewAlbum(relpath string) ID[Album] {
	h := sha1.New()
	h.Write([]byte(relpath))
	sum := h.Sum(nil)
	out := FromBytes[Album](sum)
	out[0] &= 0x7f
	return out
}

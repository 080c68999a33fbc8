package ultrahdr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalJPEG builds a syntactically valid (but not visually meaningful)
// JPEG: SOI, one APP0 segment, an SOS marker with a couple of scan bytes
// and EOI.
func minimalJPEG(appSegments ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8}) // SOI
	for _, payload := range appSegments {
		buf.Write([]byte{0xFF, 0xE0})
		length := len(payload) + 2
		buf.Write([]byte{byte(length >> 8), byte(length)})
		buf.Write(payload)
	}
	buf.Write([]byte{0xFF, 0xDA, 0x00, 0x02}) // SOS, zero-length header (not valid JPEG, fine for our parser)
	buf.Write([]byte{0x12, 0x34})             // fake entropy-coded data
	buf.Write([]byte{0xFF, 0xD9})             // EOI
	return buf.Bytes()
}

func TestParseWriteRoundTrip(t *testing.T) {
	original := minimalJPEG([]byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))

	j, err := Parse(bytes.NewReader(original))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, j.Write(&out))
	assert.Equal(t, original, out.Bytes())
}

func TestMuxInjectsXMPAndMPFSegments(t *testing.T) {
	primary := minimalJPEG([]byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
	gainmap := minimalJPEG([]byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))

	muxed, err := Mux(primary, gainmap, "image/jpeg")
	require.NoError(t, err)

	j, err := Parse(bytes.NewReader(muxed))
	require.NoError(t, err)
	assert.True(t, IsUltraHDR(j), "muxed file should be detected as UltraHDR")

	// the gain-map's bytes must follow the primary's own EOI verbatim.
	assert.True(t, bytes.Contains(muxed, gainmap))
}

func TestDetectFalseForPlainJPEG(t *testing.T) {
	plain := minimalJPEG([]byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
	isHDR, err := Detect(bytes.NewReader(plain))
	require.NoError(t, err)
	assert.False(t, isHDR)
}

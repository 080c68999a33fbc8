package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTripsString(t *testing.T) {
	mid := NewMedia("main", "a.jpg", 100)

	parsed, err := Parse[Media](mid.String())
	require.NoError(t, err)
	assert.Equal(t, mid, parsed)
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := Parse[Media]("abcd")
	assert.Error(t, err)
}

func TestInt64RoundTrips(t *testing.T) {
	mid := NewMedia("main", "a.jpg", 100)
	assert.Equal(t, mid, FromInt64[Media](mid.Int64()))
}

func TestNewMediaVariesWithSize(t *testing.T) {
	a := NewMedia("main", "a.jpg", 100)
	b := NewMedia("main", "a.jpg", 200)
	assert.NotEqual(t, a, b, "overwritten file with a new size must get a fresh id")
}

func TestNewAlbumClearsHighBit(t *testing.T) {
	aid := NewAlbum("2024-01-01 trip")
	assert.Zero(t, aid[0]&0x80)
}

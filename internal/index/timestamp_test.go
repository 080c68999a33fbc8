package index

import (
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/scan"
	"github.com/stretchr/testify/assert"
)

func TestTimestampFromNameRecognizesWhatsAppPattern(t *testing.T) {
	ts := timestampFromName("IMG-20240115-WA0007.jpg")
	assert.False(t, ts.IsZero())
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 1, int(ts.Month()))
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, 12, ts.Hour())
}

func TestTimestampFromNameFallsBackWhenNoMatch(t *testing.T) {
	ts := timestampFromName("vacation-photo.jpg")
	assert.True(t, ts.IsZero())
}

func TestTimestampFromNameRecognizesCameraExportPattern(t *testing.T) {
	ts := timestampFromName("IMG_20240115_153045.jpg")
	assert.False(t, ts.IsZero())
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 15, ts.Hour())
	assert.Equal(t, 30, ts.Minute())
	assert.Equal(t, 45, ts.Second())
}

func TestResolveTimestampPrefersFilenameOverExif(t *testing.T) {
	exifTime := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	item := scan.Item{RelPath: "2024/IMG_20240115_153045.jpg", Timestamp: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)}
	summary := parse.Summary{Timestamp: &exifTime}

	got := resolveTimestamp(item, summary)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, 15, got.Hour())
}

func TestResolveTimestampPrefersExifOverMtimeWhenNoFilenameMatch(t *testing.T) {
	exifTime := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	item := scan.Item{RelPath: "vacation-photo.jpg", Timestamp: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)}
	summary := parse.Summary{Timestamp: &exifTime}

	got := resolveTimestamp(item, summary)
	assert.Equal(t, exifTime, got)
}

func TestResolveTimestampFallsBackToMtime(t *testing.T) {
	mtime := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	item := scan.Item{RelPath: "vacation-photo.jpg", Timestamp: mtime}

	got := resolveTimestamp(item, parse.Summary{})
	assert.Equal(t, mtime, got)
}

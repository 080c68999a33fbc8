package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pica.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/pica.db
sources:
  - name: main
    path: /photos
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.ThumbSize)
	assert.Equal(t, 1600, cfg.PreviewSize)
	assert.Equal(t, "jpeg", cfg.ImageCodec)
	assert.Equal(t, ":8080", cfg.HttpAddress)
	assert.NotEmpty(t, cfg.AlbumConfig.Pattern)
}

func TestLoadRejectsMissingSources(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/pica.db
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadParsesSourceAccessList(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/pica.db
sources:
  - name: main
    path: /photos
  - name: private
    path: /photos-private
    access: [alice, bob]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)
	assert.Empty(t, cfg.Sources[0].Access)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Sources[1].Access)
}

func TestLoadRejectsBadCodec(t *testing.T) {
	path := writeConfig(t, `
database: /tmp/pica.db
sources:
  - name: main
    path: /photos
imageCodec: heic
`)

	_, err := Load(path)
	assert.Error(t, err)
}

// Package config loads the server's YAML configuration file. Fields use
// camelCase tags to match the on-disk convention the frontend and the
// original implementation both expect.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source describes one directory tree to scan. Access lists the usernames
// allowed to see media from this source; an empty list means every
// configured user may see it.
type Source struct {
	Name   string   `yaml:"name"`
	Path   string   `yaml:"path"`
	Access []string `yaml:"access"`
}

// User is one htpasswd-style credential entry. Hash is a bcrypt hash,
// matching the format `htpasswd -B` produces.
type User struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

// AlbumConfig configures the album grouper's directory classification.
type AlbumConfig struct {
	// Pattern is a regexp matched bottom-up against ancestor directory
	// names; the first match becomes the album's grouping key.
	Pattern string `yaml:"pattern"`
	// StripTitle is a regexp whose match is removed from the matched
	// directory name to produce the album's display title.
	StripTitle string `yaml:"stripTitle"`
}

// Config is the top-level, camelCase-keyed YAML configuration.
type Config struct {
	Database              string        `yaml:"database"`
	Sources               []Source      `yaml:"sources"`
	Users                 []User        `yaml:"users"`
	AlbumConfig           AlbumConfig   `yaml:"albumConfig"`
	ThumbSize             int           `yaml:"thumbSize"`
	PreviewSize           int           `yaml:"previewSize"`
	LazyThumbs            bool          `yaml:"lazyThumbs"`
	ScanIntervalInSeconds int           `yaml:"scanIntervalInSeconds"`
	IndexerThreads        int           `yaml:"indexerThreads"`
	HttpAddress           string        `yaml:"httpAddress"`
	AllowAccessOverHTTP   bool          `yaml:"allowAccessOverHTTP"`
	UseImageMagick        bool          `yaml:"useImageMagick"`
	ImageCodec            string        `yaml:"imageCodec"` // "jpeg" or "avif"
	PreferUltraHdr        bool          `yaml:"preferUltraHdr"`
	MaxMemoryInMegabytes  int           `yaml:"maxMemoryInMegabytes"`
	OtlpEndpoint          string        `yaml:"otlpEndpoint"`
}

// Load reads and validates a configuration file, applying the same
// defaults the original service shipped with.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{
		ThumbSize:             200,
		PreviewSize:           1600,
		ScanIntervalInSeconds: 300,
		IndexerThreads:        4,
		HttpAddress:           ":8080",
		ImageCodec:            "jpeg",
		MaxMemoryInMegabytes:  512,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path must be set")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	for _, s := range c.Sources {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("source entries require both name and path")
		}
	}
	if c.ImageCodec != "jpeg" && c.ImageCodec != "avif" {
		return fmt.Errorf("imageCodec must be jpeg or avif, got %q", c.ImageCodec)
	}
	if c.ThumbSize <= 0 || c.PreviewSize <= 0 {
		return fmt.Errorf("thumbSize and previewSize must be positive")
	}
	if c.MaxMemoryInMegabytes <= 0 {
		return fmt.Errorf("maxMemoryInMegabytes must be positive")
	}
	if c.AlbumConfig.Pattern == "" {
		c.AlbumConfig.Pattern = `^(\d{4}-\d{2}-\d{2}.*)$`
	}
	if c.AlbumConfig.StripTitle == "" {
		c.AlbumConfig.StripTitle = `^\d{4}-\d{2}-\d{2}[\s_-]*`
	}
	return nil
}

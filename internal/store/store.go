// Package store holds all of the server's sqlite-backed persistence: the
// media metadata cache, the content-addressed rendition blob store, and the
// opaque session table used by the auth layer. All three share a single
// connection pool, tuned and opened the same way the ingestion engine this
// service grew out of opened its own database.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the shared *sql.DB and exposes the three sub-stores.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the sqlite database at path, applying
// the pragmas a single-writer, many-readers embedded server wants, and
// creating every table this service owns.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	// §5: "8 connections typical" for a pool shared between the indexer
	// pool, the HTTP handlers and the background session sweep.
	db.SetMaxOpenConns(8)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY,
	source TEXT NOT NULL,
	relpath BLOB NOT NULL,
	size INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	media_type TEXT NOT NULL,
	orientation INTEGER NOT NULL,
	latitude REAL,
	longitude REAL,
	city TEXT,
	country TEXT,
	raw_pair BLOB
);
CREATE INDEX IF NOT EXISTS idx_media_source_relpath ON media(source, relpath);
CREATE INDEX IF NOT EXISTS idx_media_timestamp ON media(timestamp);

CREATE TABLE IF NOT EXISTS media_error (
	id INTEGER PRIMARY KEY,
	source TEXT NOT NULL,
	relpath BLOB NOT NULL,
	reason TEXT NOT NULL,
	occurred_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS blob (
	hash TEXT PRIMARY KEY,
	mime TEXT NOT NULL,
	bytes BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS image (
	media INTEGER NOT NULL,
	size INTEGER NOT NULL,
	hash TEXT NOT NULL,
	PRIMARY KEY (media, size)
);

CREATE TABLE IF NOT EXISTS session (
	id TEXT PRIMARY KEY,
	user TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_expires ON session(expires_at);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// DB exposes the shared connection pool to sub-stores constructed around
// this Store (MetadataCache, BlobStore, SessionStore).
func (s *Store) DB() *sql.DB {
	return s.db
}

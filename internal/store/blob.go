package store

import (
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/pica-gallery/pica/internal/id"
)

// BlobStore is the content-addressed rendition cache described in
// a `blob` table keyed by the SHA-1 of its bytes, and an
// `image` table mapping (media, size) to the current blob for that
// rendition. Distinct media/size pairs that happen to render to identical
// bytes share one blob row; storing a new rendition for an existing
// (media, size) pair is last-writer-wins on the `image` row, while the
// orphaned blob row (if no other image references it) is simply left in
// place — blobs are never garbage collected, matching the original
// service's behavior of trading disk space for a simpler cache.
type BlobStore struct {
	db *sql.DB
}

func NewBlobStore(s *Store) *BlobStore {
	return &BlobStore{db: s.db}
}

// Get returns the bytes and mime type of the rendition stored for
// (mediaID, size), or ok=false if none exists.
func (b *BlobStore) Get(mediaID id.ID[id.Media], size int) (data []byte, mime string, ok bool, err error) {
	row := b.db.QueryRow(`
		SELECT blob.bytes, blob.mime
		FROM image JOIN blob ON blob.hash = image.hash
		WHERE image.media = ? AND image.size = ?
	`, mediaID.Int64(), size)

	err = row.Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("blobstore: get %s/%d: %w", mediaID, size, err)
	}
	return data, mime, true, nil
}

// Put stores data as the rendition of mediaID at size, with the given mime
// type, returning the content hash.
func (b *BlobStore) Put(mediaID id.ID[id.Media], size int, mime string, data []byte) (string, error) {
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])

	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("blobstore: put %s/%d: begin: %w", mediaID, size, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO blob (hash, mime, bytes) VALUES (?, ?, ?)`, hash, mime, data); err != nil {
		return "", fmt.Errorf("blobstore: put %s/%d: insert blob: %w", mediaID, size, err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO image (media, size, hash) VALUES (?, ?, ?)`, mediaID.Int64(), size, hash); err != nil {
		return "", fmt.Errorf("blobstore: put %s/%d: insert image: %w", mediaID, size, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("blobstore: put %s/%d: commit: %w", mediaID, size, err)
	}
	return hash, nil
}

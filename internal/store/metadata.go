package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
)

// MetadataCache is the durable `media` / `media_error` table pair described
// Every write is insert-or-ignore for media rows
// (a MediaId is immutable once derived, so a re-scan can never need to
// update one) and insert-or-replace for error rows (a later failure reason
// supersedes an earlier one for the same item).
type MetadataCache struct {
	db *sql.DB
}

func NewMetadataCache(s *Store) *MetadataCache {
	return &MetadataCache{db: s.db}
}

// Put inserts a media row, ignoring the call if the id already exists.
func (m *MetadataCache) Put(item media.Item) error {
	var lat, lon sql.NullFloat64
	var city, country sql.NullString
	if item.Info.Location != nil {
		lat = sql.NullFloat64{Float64: item.Info.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: item.Info.Location.Longitude, Valid: true}
		city = sql.NullString{String: item.Info.Location.City, Valid: item.Info.Location.City != ""}
		country = sql.NullString{String: item.Info.Location.Country, Valid: item.Info.Location.Country != ""}
	}
	var rawPair sql.NullString
	if item.RawPair != "" {
		rawPair = sql.NullString{String: item.RawPair, Valid: true}
	}

	_, err := m.db.Exec(`
		INSERT OR IGNORE INTO media
			(id, source, relpath, size, timestamp, width, height, media_type, orientation, latitude, longitude, city, country, raw_pair)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID.Int64(), item.Source, []byte(item.RelPath), item.Size, item.Timestamp.UTC().Unix(),
		item.Info.Width, item.Info.Height, string(item.Info.Type), int(item.Info.Orientation),
		lat, lon, city, country, rawPair,
	)
	if err != nil {
		return fmt.Errorf("metadata: put %s: %w", item.ID, err)
	}
	return nil
}

// MarkError records (or overwrites) the reason a scan item could not be
// indexed. Consulted by the indexer before ever attempting to parse again.
func (m *MetadataCache) MarkError(mediaID id.ID[id.Media], source, relpath, reason string) error {
	_, err := m.db.Exec(`
		INSERT OR REPLACE INTO media_error (id, source, relpath, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, mediaID.Int64(), source, []byte(relpath), reason, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("metadata: mark error %s: %w", mediaID, err)
	}
	return nil
}

// HasError reports whether mediaID has a recorded error, meaning the
// indexer must skip it without parsing again.
func (m *MetadataCache) HasError(mediaID id.ID[id.Media]) (bool, error) {
	var n int
	err := m.db.QueryRow(`SELECT COUNT(1) FROM media_error WHERE id = ?`, mediaID.Int64()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("metadata: has error %s: %w", mediaID, err)
	}
	return n > 0, nil
}

// Get returns the cached media row for mediaID, or ok=false if none
// exists. Consulted by the indexer before re-parsing the source file, so
// an item that disappears and reappears across scans is re-emitted from
// the cache instead of being re-parsed from scratch.
func (m *MetadataCache) Get(mediaID id.ID[id.Media]) (item media.Item, ok bool, err error) {
	row := m.db.QueryRow(`
		SELECT id, source, relpath, size, timestamp, width, height, media_type, orientation,
		       latitude, longitude, city, country, raw_pair
		FROM media WHERE id = ?
	`, mediaID.Int64())

	item, err = scanMediaRow(row.Scan)
	if err == sql.ErrNoRows {
		return media.Item{}, false, nil
	}
	if err != nil {
		return media.Item{}, false, fmt.Errorf("metadata: get %s: %w", mediaID, err)
	}
	return item, true, nil
}

// GetError returns the recorded failure reason for mediaID, or ok=false
// if none exists.
func (m *MetadataCache) GetError(mediaID id.ID[id.Media]) (reason string, ok bool, err error) {
	row := m.db.QueryRow(`SELECT reason FROM media_error WHERE id = ?`, mediaID.Int64())
	if err := row.Scan(&reason); err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("metadata: get error %s: %w", mediaID, err)
	}
	return reason, true, nil
}

// All loads every media row, used to seed the live item set and the scan
// queue's known-set at startup.
func (m *MetadataCache) All() ([]media.Item, error) {
	rows, err := m.db.Query(`
		SELECT id, source, relpath, size, timestamp, width, height, media_type, orientation,
		       latitude, longitude, city, country, raw_pair
		FROM media
	`)
	if err != nil {
		return nil, fmt.Errorf("metadata: all: %w", err)
	}
	defer rows.Close()

	var out []media.Item
	for rows.Next() {
		item, err := scanMediaRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("metadata: scan row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// scanMediaRow reads one `media` row via scan (either *sql.Row.Scan or
// *sql.Rows.Scan) into a media.Item, shared by Get and All.
func scanMediaRow(scan func(dest ...any) error) (media.Item, error) {
	var (
		rawID                     int64
		source                    string
		relpath                   []byte
		size                      int64
		ts                        int64
		width, height, orient     int
		mediaType                 string
		lat, lon                  sql.NullFloat64
		city, country, rawPairStr sql.NullString
	)
	if err := scan(&rawID, &source, &relpath, &size, &ts, &width, &height, &mediaType, &orient,
		&lat, &lon, &city, &country, &rawPairStr); err != nil {
		return media.Item{}, err
	}

	item := media.Item{
		ID:        id.FromInt64[id.Media](rawID),
		Source:    source,
		RelPath:   string(relpath),
		Size:      size,
		Timestamp: time.Unix(ts, 0).UTC(),
		Info: media.Info{
			Width:       width,
			Height:      height,
			Type:        media.Type(mediaType),
			Orientation: media.Orientation(orient),
		},
	}
	if lat.Valid && lon.Valid {
		item.Info.Location = &media.Location{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			City:      city.String,
			Country:   country.String,
		}
	}
	if rawPairStr.Valid {
		item.RawPair = rawPairStr.String
	}
	return item, nil
}

// Package scan implements filesystem discovery: the ScanQueue priority
// structure and the Scanner that walks configured source trees and feeds
// it.
package scan

import (
	"time"

	"github.com/pica-gallery/pica/internal/id"
)

// Item is one file discovered by the scanner, not yet indexed.
type Item struct {
	ID        id.ID[id.Media]
	Source    string
	RelPath   string
	Size      int64
	Timestamp time.Time
	// RawPair is the relpath of a collapsed sibling raw file, if any.
	RawPair string
}

// EntryKind distinguishes the two things that can flow through the queue.
type EntryKind int

const (
	// EntryAdd carries a newly- or re-discovered Item to be indexed.
	EntryAdd EntryKind = iota
	// EntryRemove carries the id of an item that vanished from the
	// filesystem since the last scan; the indexer evicts it from the
	// live item set without ever touching the source file.
	EntryRemove
)

// Entry is one thing queued for the indexer pool, together with the
// priority used to order the heap. Add entries sort by Item.Timestamp
// (newest first); Remove entries always outrank every Add entry, since
// evicting a deleted item is cheap and should never wait behind a pile of
// indexing work.
type Entry struct {
	Kind EntryKind

	Item    Item            // valid when Kind == EntryAdd
	Removed id.ID[id.Media] // valid when Kind == EntryRemove

	seq   int64 // tiebreaker among Remove entries, preserving FIFO order
	index int
}

// Package index implements the indexer pool: a set of worker goroutines
// draining the scan queue, deriving full media.Item metadata for each
// item, and publishing it to the metadata cache and the live item set.
// The worker-pool shape is grounded on the engine this service grew out
// of, which ran a fixed number of goroutines pulling jobs off a channel and
// publishing results to a single collector — here simplified to pulling
// directly from the scan queue, since there is no separate collector
// needed when every worker writes to its own sqlite connection.
package index

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pica-gallery/pica/internal/geo"
	"github.com/pica-gallery/pica/internal/liveset"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/pica-gallery/pica/internal/parse"
	"github.com/pica-gallery/pica/internal/rendition"
	"github.com/pica-gallery/pica/internal/scan"
	"github.com/pica-gallery/pica/internal/store"
	"github.com/sirupsen/logrus"
)

// SourceRoots maps a configured source name to its filesystem root, needed
// to turn a scan.Item's relpath back into an absolute path for parsing.
type SourceRoots map[string]string

// Pool drains a scan.Queue with a fixed number of worker goroutines.
type Pool struct {
	Queue    *scan.Queue
	Cache    *store.MetadataCache
	Live     *liveset.Set
	Parser   *parse.Parser
	Geocoder *geo.Geocoder
	Roots    SourceRoots
	Workers  int

	// Accessor, when non-nil, is used to eagerly render thumb and preview
	// renditions right after an item is indexed or re-emitted from cache,
	// rather than waiting for the first client request to trigger it.
	Accessor    *rendition.Accessor
	LazyThumbs  bool
	ThumbSize   int
	PreviewSize int

	log *logrus.Entry
}

func New(queue *scan.Queue, cache *store.MetadataCache, live *liveset.Set, p *parse.Parser, geocoder *geo.Geocoder, roots SourceRoots, workers int, accessor *rendition.Accessor, lazyThumbs bool, thumbSize, previewSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		Queue: queue, Cache: cache, Live: live, Parser: p, Geocoder: geocoder, Roots: roots, Workers: workers,
		Accessor: accessor, LazyThumbs: lazyThumbs, ThumbSize: thumbSize, PreviewSize: previewSize,
		log: logrus.WithField("component", "index"),
	}
}

// Run starts Workers goroutines, each polling the queue until ctx is
// cancelled. Run blocks until every worker has exited.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.loop(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, worker int) {
	log := p.log.WithField("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, ok := p.Queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(250 * time.Millisecond):
			}
			continue
		}

		if entry.Kind == scan.EntryRemove {
			p.Live.Remove(entry.Removed)
			continue
		}

		if err := p.index(ctx, entry.Item); err != nil {
			log.WithError(err).WithField("relpath", entry.Item.RelPath).Warn("failed to index item")
		}
	}
}

// index resolves one scanned item to a full media.Item. It consults the
// error memo first and never retries a previously-failed item, then the
// metadata cache — a cache hit is re-emitted to the live item set without
// touching the source file again, since the only reason an Add entry
// reaches here for a known id is that the item briefly disappeared and
// reappeared across scans. Only a genuine cache miss parses the file.
func (p *Pool) index(ctx context.Context, item scan.Item) error {
	if _, hasError, err := p.Cache.GetError(item.ID); err != nil {
		return err
	} else if hasError {
		return nil
	}

	if cached, ok, err := p.Cache.Get(item.ID); err != nil {
		return err
	} else if ok {
		p.Live.Put(cached)
		p.eagerRender(ctx, cached)
		return nil
	}

	root, ok := p.Roots[item.Source]
	if !ok {
		return fmt.Errorf("index: unknown source %q", item.Source)
	}
	absPath := filepath.Join(root, filepath.FromSlash(item.RelPath))

	typ, ok := media.TypeOf(fileExt(item.RelPath))
	if !ok {
		return fmt.Errorf("index: unrecognized type for %s", item.RelPath)
	}

	summary, err := p.Parser.Summarize(absPath, typ)
	if err != nil {
		_ = p.Cache.MarkError(item.ID, item.Source, item.RelPath, err.Error())
		return nil
	}

	timestamp := resolveTimestamp(item, summary)

	width, height := summary.Width, summary.Height
	if summary.Orientation.Transposed() {
		width, height = height, width
	}

	var location *media.Location
	if summary.Location != nil && p.Geocoder != nil {
		city, err := p.Geocoder.Nearest(summary.Location.Latitude, summary.Location.Longitude)
		if err == nil {
			location = &media.Location{
				Latitude:  summary.Location.Latitude,
				Longitude: summary.Location.Longitude,
				City:      city.Name,
				Country:   city.Country,
			}
		} else {
			location = summary.Location
		}
	}

	mediaItem := media.Item{
		ID:        item.ID,
		Source:    item.Source,
		RelPath:   item.RelPath,
		Size:      item.Size,
		Timestamp: timestamp,
		RawPair:   item.RawPair,
		Info: media.Info{
			Width:       width,
			Height:      height,
			Type:        typ,
			Orientation: summary.Orientation,
			Location:    location,
		},
	}

	if err := p.Cache.Put(mediaItem); err != nil {
		return err
	}
	p.Live.Put(mediaItem)
	p.eagerRender(ctx, mediaItem)
	return nil
}

// eagerRender triggers thumb and preview rendering for item right away,
// instead of waiting for the first client request, when LazyThumbs is
// disabled and an Accessor is wired in.
func (p *Pool) eagerRender(ctx context.Context, item media.Item) {
	if p.LazyThumbs || p.Accessor == nil {
		return
	}
	for _, size := range [...]int{p.ThumbSize, p.PreviewSize} {
		if _, _, err := p.Accessor.Get(ctx, item, size); err != nil && ctx.Err() == nil {
			p.log.WithError(err).WithField("relpath", item.RelPath).WithField("size", size).Debug("eager render failed")
		}
	}
}

// resolveTimestamp picks an item's timestamp, least to most authoritative:
// filesystem mtime, then EXIF DateTimeOriginal, then a date encoded in the
// filename itself — a camera export often renames a file to its capture
// date, which is more trustworthy than EXIF surviving an app's re-encode.
func resolveTimestamp(item scan.Item, summary parse.Summary) time.Time {
	timestamp := item.Timestamp
	if summary.Timestamp != nil {
		timestamp = *summary.Timestamp
	}
	if ts := timestampFromName(path.Base(item.RelPath)); !ts.IsZero() {
		timestamp = ts
	}
	return timestamp
}

func fileExt(relpath string) string {
	ext := filepath.Ext(relpath)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// filenameTimestamp matches `YYYYMMDDHHMMSS` (optionally underscore-
// separated, the form most camera/export tools use) anywhere in a
// filename.
var filenameTimestamp = regexp.MustCompile(`(20\d\d[01]\d[0123]\d)_?([012]\d[0-5]\d[0-5]\d)`)

// whatsappTimestamp matches WhatsApp's export naming (`IMG-20240115-WA0007`),
// which carries a date but no time component.
var whatsappTimestamp = regexp.MustCompile(`(20\d\d[01]\d[0123]\d)-WA\d+`)

func timestampFromName(name string) time.Time {
	if m := filenameTimestamp.FindStringSubmatch(name); m != nil {
		t, err := time.ParseInLocation("20060102150405", m[1]+m[2], time.UTC)
		if err == nil {
			return t
		}
	}
	if m := whatsappTimestamp.FindStringSubmatch(name); m != nil {
		// No time-of-day is encoded; noon is used as a neutral default so
		// the item still sorts correctly by day against filename-dated and
		// EXIF-dated items.
		t, err := time.ParseInLocation("20060102150405", m[1]+"120000", time.UTC)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

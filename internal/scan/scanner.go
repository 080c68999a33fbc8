package scan

import (
	"context"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// minFileSize is the floor below which a file is assumed to be a
// thumbnail/sidecar artifact rather than real media.
const minFileSize = 8192

// Scanner periodically walks one configured source tree, using a
// billy.Filesystem as the abstraction over "a directory tree", the same
// pattern the indexing engine this service grew out of used to bridge its
// own in-memory tree to a filesystem-shaped interface — here run in the
// opposite direction, treating a real directory as the billy.Filesystem so
// a future non-local source needs only a different billy.Filesystem
// implementation, not a rewritten scanner.
type Scanner struct {
	Source string
	Root   string
	log    *logrus.Entry

	fs  billy.Filesystem
	dev uint64
}

func NewScanner(source, root string) (*Scanner, error) {
	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return nil, err
	}
	return &Scanner{
		Source: source,
		Root:   root,
		log:    logrus.WithField("source", source),
		fs:     osfs.New(root),
		dev:    uint64(st.Dev),
	}, nil
}

// Run walks the source tree every interval until ctx is cancelled,
// reconciling discovered items against queue. Removals flow into the same
// queue as Remove entries rather than being reported back here — eviction
// from the live item set is the indexer pool's job, not the scanner's.
func (s *Scanner) Run(ctx context.Context, queue *Queue, interval time.Duration) error {
	for {
		if err := s.scanOnce(queue); err != nil {
			s.log.WithError(err).Warn("scan failed, will retry next interval")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (s *Scanner) scanOnce(queue *Queue) error {
	items, err := s.walk()
	if err != nil {
		return err
	}
	queue.Reconcile(items)
	s.log.WithField("count", len(items)).Debug("scan complete")
	return nil
}

// walk performs one full pass over the source tree: same-filesystem
// devices only, no symlink following, dotfiles skipped, files below
// minFileSize skipped, and sibling raw files (e.g. IMG_0001.cr3 next to
// IMG_0001.jpg) collapsed onto the non-raw item.
func (s *Scanner) walk() ([]Item, error) {
	var items []Item
	if err := s.walkDir("", &items); err != nil {
		return nil, err
	}
	return collapseRawPairs(items), nil
}

func (s *Scanner) walkDir(dir string, out *[]Item) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		rel := path.Join(dir, name)

		if entry.Mode()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			var st unix.Stat_t
			if err := unix.Stat(path.Join(s.Root, rel), &st); err == nil && uint64(st.Dev) != s.dev {
				continue // different filesystem, do not cross
			}
			if err := s.walkDir(rel, out); err != nil {
				return err
			}
			continue
		}

		if entry.Size() < minFileSize {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if _, ok := media.TypeOf(ext); !ok {
			continue
		}

		*out = append(*out, Item{
			ID:        id.NewMedia(s.Source, rel, entry.Size()),
			Source:    s.Source,
			RelPath:   rel,
			Size:      entry.Size(),
			Timestamp: entry.ModTime(),
		})
	}
	return nil
}

// collapseRawPairs drops a .cr3/.arw item when a sibling .jpg/.jpeg with the
// same stem exists, recording the dropped item's relpath on the kept item
// as RawPair.
func collapseRawPairs(items []Item) []Item {
	byStem := make(map[string][]int) // dir+stem -> indices
	for i, it := range items {
		dir, file := path.Split(it.RelPath)
		stem := strings.TrimSuffix(file, path.Ext(file))
		key := dir + stem
		byStem[key] = append(byStem[key], i)
	}

	drop := make(map[int]bool)
	for _, idxs := range byStem {
		if len(idxs) < 2 {
			continue
		}
		var jpegIdx = -1
		var rawIdx = -1
		for _, i := range idxs {
			ext := strings.ToLower(path.Ext(items[i].RelPath))
			switch ext {
			case ".jpg", ".jpeg":
				jpegIdx = i
			case ".cr3", ".arw":
				rawIdx = i
			}
		}
		if jpegIdx >= 0 && rawIdx >= 0 {
			items[jpegIdx].RawPair = items[rawIdx].RelPath
			drop[rawIdx] = true
		}
	}

	out := items[:0:0]
	for i, it := range items {
		if !drop[i] {
			out = append(out, it)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

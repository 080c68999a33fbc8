package rendition

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/pica-gallery/pica/internal/media"
	"github.com/pica-gallery/pica/internal/store"
)

// Accessor is a read-through cache:
// check the blob store first, and on a miss submit to the scale queue,
// storing the result before returning it.
type Accessor struct {
	Blobs *store.BlobStore
	Queue *Queue
	Roots map[string]string // source name -> filesystem root
}

func NewAccessor(blobs *store.BlobStore, queue *Queue, roots map[string]string) *Accessor {
	return &Accessor{Blobs: blobs, Queue: queue, Roots: roots}
}

// Get returns the rendition of item at size, decoding and caching it on a
// miss. ctx cancellation only affects the caller's wait — a decode already
// handed to the queue still runs to completion, but its result is
// discarded and not stored in the blob store.
func (a *Accessor) Get(ctx context.Context, item media.Item, size int) (data []byte, mime string, err error) {
	if data, mime, ok, err := a.Blobs.Get(item.ID, size); err != nil {
		return nil, "", err
	} else if ok {
		return data, mime, nil
	}

	root, ok := a.Roots[item.Source]
	if !ok {
		return nil, "", fmt.Errorf("rendition: unknown source %q", item.Source)
	}
	path := filepath.Join(root, filepath.FromSlash(item.RelPath))

	ch := a.Queue.Submit(ctx, item.ID, size, path)
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, "", result.Err
		}
		if _, err := a.Blobs.Put(item.ID, size, result.Mime, result.Data); err != nil {
			return nil, "", err
		}
		return result.Data, result.Mime, nil
	}
}

// NewDecodeFunc adapts a Codec into the decode callback Queue.Run expects.
func NewDecodeFunc(codec *Codec, items func(id.ID[id.Media]) (media.Item, bool)) func(ctx context.Context, req *Request) Result {
	return func(ctx context.Context, req *Request) Result {
		item, ok := items(req.Media)
		if !ok {
			return Result{Err: fmt.Errorf("rendition: unknown media %s", req.Media)}
		}
		data, mime, err := codec.Decode(ctx, req.Path, item.Info.Type, item.Info.Orientation, req.Size)
		if err != nil {
			return Result{Err: err}
		}
		return Result{Data: data, Mime: mime}
	}
}

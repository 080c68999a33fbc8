// Package rendition implements on-demand rendition materialization: the
// scale queue that turns a (media, size) request into resized bytes, and
// the rendition accessor that fronts it with the blob store as a
// read-through cache.
package rendition

import (
	"context"
	"sync"

	"github.com/pica-gallery/pica/internal/id"
	"golang.org/x/sync/semaphore"
)

// Request is one pending scale operation.
type Request struct {
	Media id.ID[id.Media]
	Size  int
	Path  string // absolute path to the source file to decode

	result chan Result
}

// Result is what a Request resolves to.
type Result struct {
	Data []byte
	Mime string
	Err  error
}

// taskKey identifies in-flight work for the optional coalescing path.
type taskKey struct {
	media id.ID[id.Media]
	size  int
}

// Queue is a LIFO work queue gated by a memory-budget semaphore: the
// worker pulls from the top of the stack (the most recently requested
// rendition, typically the one a user is actively waiting on) and blocks
// acquiring the semaphore before decoding, so total concurrent decode
// memory never exceeds the configured budget.
type Queue struct {
	mem    *semaphore.Weighted
	budget int64
	// coalesce, when true, merges a new Submit for an (media,size) pair
	// already in flight into the existing request's result fan-out instead
	// of enqueuing a duplicate decode. Off by default, matching the base
	// default semantics here; the coalescing variant is acceptable and
	// preferred but not required.
	coalesce bool

	mu      sync.Mutex
	stack   []*Request
	waiting map[taskKey][]chan Result

	decode   func(ctx context.Context, req *Request) Result // injected for testability
	estimate func(req *Request) int64

	wake chan struct{}
}

// NewQueue creates a Queue with the given memory budget in bytes, a decode
// function (the real one wraps codec.Decode; tests inject a fake), and an
// estimate function predicting a request's peak decode memory in bytes
// (used to size the semaphore acquisition before decoding).
func NewQueue(memoryBudget int64, coalesce bool, decode func(ctx context.Context, req *Request) Result, estimate func(req *Request) int64) *Queue {
	if estimate == nil {
		estimate = func(req *Request) int64 { return int64(req.Size) * int64(req.Size) * 4 }
	}
	return &Queue{
		mem:      semaphore.NewWeighted(memoryBudget),
		budget:   memoryBudget,
		coalesce: coalesce,
		waiting:  make(map[taskKey][]chan Result),
		decode:   decode,
		estimate: estimate,
		wake:     make(chan struct{}, 1),
	}
}

// Submit enqueues a rendition request and returns a channel that receives
// exactly one Result. If ctx is cancelled before the request is serviced,
// the caller should stop reading from the channel; the worker still drains
// the queue but abandoned results are simply discarded.
func (q *Queue) Submit(ctx context.Context, mediaID id.ID[id.Media], size int, path string) <-chan Result {
	out := make(chan Result, 1)

	key := taskKey{media: mediaID, size: size}
	q.mu.Lock()
	if q.coalesce {
		if waiters, inFlight := q.waiting[key]; inFlight {
			q.waiting[key] = append(waiters, out)
			q.mu.Unlock()
			return out
		}
		q.waiting[key] = []chan Result{out}
	}

	req := &Request{Media: mediaID, Size: size, Path: path, result: out}
	q.stack = append(q.stack, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return out
}

func (q *Queue) pop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.stack)
	if n == 0 {
		return nil
	}
	req := q.stack[n-1]
	q.stack = q.stack[:n-1]
	return req
}

// Run drives one worker loop until ctx is cancelled: pop the newest
// request, acquire the memory semaphore sized to the request's estimated
// decode footprint, decode, release, fan the result out to every
// coalesced waiter. Safe to run from a fixed pool of goroutines sharing
// one Queue — stack access and the semaphore are both synchronized.
func (q *Queue) Run(ctx context.Context) {
	for {
		req := q.pop()
		if req == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}

		select {
		case <-ctx.Done():
			q.deliver(req, Result{Err: ctx.Err()})
			return
		default:
		}

		weight := q.estimate(req)
		if weight <= 0 {
			weight = 1
		}
		if weight > q.budget {
			weight = q.budget // never deadlock on a request bigger than the whole budget
		}
		if err := q.mem.Acquire(ctx, weight); err != nil {
			q.deliver(req, Result{Err: err})
			continue
		}
		result := q.decode(ctx, req)
		q.mem.Release(weight)
		q.deliver(req, result)
	}
}

func (q *Queue) deliver(req *Request, result Result) {
	key := taskKey{media: req.Media, size: req.Size}
	q.mu.Lock()
	waiters := q.waiting[key]
	delete(q.waiting, key)
	q.mu.Unlock()

	if len(waiters) == 0 {
		waiters = []chan Result{req.result}
	}
	for _, w := range waiters {
		w <- result
		close(w)
	}
}

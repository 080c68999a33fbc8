package rendition

import (
	"context"
	"testing"
	"time"

	"github.com/pica-gallery/pica/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSubmitAndDecode(t *testing.T) {
	calls := 0
	decode := func(ctx context.Context, req *Request) Result {
		calls++
		return Result{Data: []byte("resized"), Mime: "image/jpeg"}
	}

	q := NewQueue(1<<20, false, decode, func(req *Request) int64 { return 1024 })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mediaID := id.NewMedia("main", "a.jpg", 10)
	ch := q.Submit(context.Background(), mediaID, 200, "/tmp/a.jpg")

	select {
	case result := <-ch:
		require.NoError(t, result.Err)
		assert.Equal(t, "resized", string(result.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	assert.Equal(t, 1, calls)
}

func TestQueueCoalescesDuplicateRequests(t *testing.T) {
	calls := 0
	block := make(chan struct{})
	decode := func(ctx context.Context, req *Request) Result {
		calls++
		<-block
		return Result{Data: []byte("resized"), Mime: "image/jpeg"}
	}

	q := NewQueue(1<<20, true, decode, func(req *Request) int64 { return 1024 })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	mediaID := id.NewMedia("main", "a.jpg", 10)
	ch1 := q.Submit(context.Background(), mediaID, 200, "/tmp/a.jpg")
	// give the worker a chance to pick up the first request before the
	// second (coalescing) submit arrives
	time.Sleep(50 * time.Millisecond)
	ch2 := q.Submit(context.Background(), mediaID, 200, "/tmp/a.jpg")

	close(block)

	for _, ch := range []<-chan Result{ch1, ch2} {
		select {
		case result := <-ch:
			require.NoError(t, result.Err)
			assert.Equal(t, "resized", string(result.Data))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for result")
		}
	}
	assert.Equal(t, 1, calls, "coalesced requests must only decode once")
}

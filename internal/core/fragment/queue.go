package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/colonyops/revdeck/internal/core/logging"
)

// Fetcher issues the single HTTP request for one batch of fragment IDs.
// Implementations join the IDs into one URL and return the raw binary body.
type Fetcher interface {
	FetchFragments(ctx context.Context, batchKey string, ids []string) ([]byte, error)
}

// Container is the render target for one fragment ID. In the TUI this is a
// comment-fragment pane; tests use in-memory stubs.
type Container interface {
	HTML() string
	SetHTML(html string)
}

// ContainerResolver locates the container for a fragment ID. A missing
// container means the server returned data for something no longer on
// screen; the queue logs and skips it.
type ContainerResolver interface {
	Container(id string) (Container, bool)
}

// queuedLoad is one pending fragment request within a batch.
type queuedLoad struct {
	id         string
	onRendered func(id string)
}

// Queue batches fragment loads so that one network request serves many
// comment fragments. Loads accumulate per batch key (commonly a file ID)
// until LoadFragments runs. A save/restore cache preserves already-rendered
// fragment HTML across reloads triggered by something else, such as an open
// inline editor surviving a neighboring expand.
//
// Queue is not safe for concurrent use; it is driven from the single-threaded
// update loop.
type Queue struct {
	fetcher  Fetcher
	resolver ContainerResolver

	queued map[string][]queuedLoad // batch key -> pending loads, in queue order
	saved  map[string]string       // fragment ID -> saved HTML
}

// NewQueue creates a fragment load queue.
func NewQueue(fetcher Fetcher, resolver ContainerResolver) *Queue {
	return &Queue{
		fetcher:  fetcher,
		resolver: resolver,
		queued:   make(map[string][]queuedLoad),
		saved:    make(map[string]string),
	}
}

// QueueLoad appends id to the batch named batchKey. No network activity
// happens until LoadFragments. onRendered may be nil.
func (q *Queue) QueueLoad(id, batchKey string, onRendered func(id string)) {
	q.queued[batchKey] = append(q.queued[batchKey], queuedLoad{id: id, onRendered: onRendered})
}

// SaveFragment snapshots the current HTML of id's container into the saved
// cache, if the container exists and holds rendered content. The snapshot is
// consumed by the next LoadFragments pass.
func (q *Queue) SaveFragment(id string) {
	container, ok := q.resolver.Container(id)
	if !ok {
		return
	}
	if html := container.HTML(); html != "" {
		q.saved[id] = html
	}
}

// Pending reports how many loads are queued across all batches.
func (q *Queue) Pending() int {
	n := 0
	for _, loads := range q.queued {
		n += len(loads)
	}
	return n
}

// Pass is one detached load pass: the queued batches and saved cache taken
// off the queue on the event loop. Fetch is the only method safe to call
// from another goroutine; everything the fetch needs is captured here, and
// containers are only touched when the queue applies the results back on
// the event loop.
type Pass struct {
	fetcher Fetcher
	queued  map[string][]queuedLoad
	saved   map[string]string
}

// Snapshot detaches the queued batches and saved cache into a Pass and
// resets the queue. Must run on the event loop.
func (q *Queue) Snapshot() *Pass {
	p := &Pass{fetcher: q.fetcher, queued: q.queued, saved: q.saved}
	q.queued = make(map[string][]queuedLoad)
	q.saved = make(map[string]string)
	return p
}

// Fetch runs the network half of the pass: exactly one request per batch
// key for the fragments not covered by the saved cache, decoded from the
// binary payload. No containers are touched. A framing error fails that
// batch as a whole; errors across batches are joined, and fragments from
// healthy batches are still returned.
func (p *Pass) Fetch(ctx context.Context) ([]Fragment, error) {
	log := logging.Component("fragments")

	var fetched []Fragment
	var errs []error
	for batchKey, loads := range p.queued {
		var fetchIDs []string
		for _, load := range loads {
			if _, ok := p.saved[load.id]; ok {
				continue
			}
			fetchIDs = append(fetchIDs, load.id)
		}

		if len(fetchIDs) == 0 {
			continue
		}

		body, err := p.fetcher.FetchFragments(ctx, batchKey, fetchIDs)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		decoder := NewDecoder(body)
		for {
			frag, err := decoder.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				log.Error().Err(err).Str("batch", batchKey).Msg("fragment batch decode failed")
				errs = append(errs, fmt.Errorf("batch %s: %w", batchKey, err))
				break
			}
			fetched = append(fetched, frag)
		}
	}

	return fetched, errors.Join(errs...)
}

// Apply renders a pass's results into the containers: saved fragments are
// restored without network, then the fetched fragments land. Must run on
// the event loop.
func (q *Queue) Apply(p *Pass, fetched []Fragment) {
	callbacks := make(map[string]func(string))
	for _, loads := range p.queued {
		for _, load := range loads {
			if load.onRendered != nil {
				callbacks[load.id] = load.onRendered
			}
			if html, ok := p.saved[load.id]; ok {
				q.render(Fragment{ID: load.id, HTML: html}, callbacks)
			}
		}
	}
	for _, frag := range fetched {
		q.render(frag, callbacks)
	}
}

// LoadFragments processes every queued batch synchronously: saved fragments
// are restored into their containers without network, the rest are fetched
// with exactly one request per batch key and decoded from the binary
// payload. The queue and the saved cache are cleared once processing
// completes.
//
// Fragments whose container has vanished are logged and skipped.
func (q *Queue) LoadFragments(ctx context.Context) error {
	p := q.Snapshot()
	fetched, err := p.Fetch(ctx)
	q.Apply(p, fetched)
	return err
}

// render writes one fragment into its container and fires its callback.
// Rendering into an existing container updates it in place.
func (q *Queue) render(frag Fragment, callbacks map[string]func(string)) {
	container, ok := q.resolver.Container(frag.ID)
	if !ok {
		logger := logging.Component("fragments")
		logger.Warn().
			Str("fragment_id", frag.ID).
			Msg("no container for decoded fragment, skipping")
		return
	}

	container.SetHTML(frag.HTML)

	if fn, ok := callbacks[frag.ID]; ok {
		fn(frag.ID)
	}
}

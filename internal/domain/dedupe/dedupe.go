// Package dedupe tracks ingest record ids for at-most-once recording.
//
// Clients retry event submissions freely; the deduper is what keeps a retry
// from double-counting a watch event or quiz attempt in every aggregate
// downstream.
package dedupe

import (
	"context"
	"sync"
)

// defaultMaxSize bounds the seen-id set so a long-running process does not
// grow without limit.
const defaultMaxSize = 50_000

// Deduper records seen record ids.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set so a submission can be
	// retried after a failed enqueue.
	Unrecord(ctx context.Context, id string)

	// Size returns the current number of tracked ids.
	Size() int
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*ringDeduper)

// WithMaxSize bounds the number of ids kept in memory. Zero or negative
// keeps the default bound.
func WithMaxSize(n int) Option {
	return func(d *ringDeduper) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

// ringDeduper implements Deduper with a map for membership and a ring of
// insertion order for eviction: when the bound is reached the oldest id is
// forgotten first.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
}

// New creates a bounded in-memory deduper.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.order = make([]string, d.maxSize)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	// Evict the slot we are about to reuse.
	if old := d.order[d.head]; old != "" {
		delete(d.seen, old)
	}
	d.order[d.head] = id
	d.head = (d.head + 1) % d.maxSize
	d.seen[id] = struct{}{}
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	// Clear the ring slot so eviction does not delete a re-added id later.
	for i := range d.order {
		if d.order[i] == id {
			d.order[i] = ""
			break
		}
	}
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Package search implements the debounced, paginated, infinite-scroll query
// pattern shared by user search and group search. Results are transient:
// they live only as long as the current query and are never persisted or
// deduplicated (they are keyed by list position, not identity).
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbarkov/feedline/internal/logging"
)

const (
	// DefaultDebounce is the pause after the last keystroke before a
	// query is dispatched.
	DefaultDebounce = 300 * time.Millisecond

	defaultPageSize = 20
)

// Fetch returns one page of results for query.
type Fetch[T any] func(ctx context.Context, query string, page, size int) (items []T, last bool, err error)

// Dispatcher debounces a text query, fetches page zero fresh and appends
// subsequent pages on demand. Replacing the query while a debounce timer is
// pending replaces the timer: the last writer wins, earlier queries are
// never dispatched. Safe for concurrent use.
type Dispatcher[T any] struct {
	fetch    Fetch[T]
	debounce time.Duration
	pageSize int
	log      logging.Logger

	mu      sync.Mutex
	query   string
	items   []T
	page    int
	hasMore bool
	loading int // fetches in flight
	err     error
	gen     uint64
	timer   *time.Timer
	closed  bool

	// onUpdate, when set, runs after every result change (view hook).
	onUpdate func()
}

// NewDispatcher wires a Dispatcher. Non-positive debounce or pageSize select
// the defaults.
func NewDispatcher[T any](fetch Fetch[T], debounce time.Duration, pageSize int, log logging.Logger) *Dispatcher[T] {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Dispatcher[T]{fetch: fetch, debounce: debounce, pageSize: pageSize, log: log}
}

// OnUpdate registers fn to run after every result change. Must be set before
// the dispatcher is shared between goroutines.
func (d *Dispatcher[T]) OnUpdate(fn func()) {
	d.onUpdate = fn
}

// SetQuery replaces the current query. Previous results are discarded and
// the cursor returns to page zero; the fetch fires after the debounce
// interval unless the query changes again first. An empty query clears
// results and disables paging immediately, with no request.
func (d *Dispatcher[T]) SetQuery(ctx context.Context, query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.query = query
	d.gen++
	gen := d.gen
	d.items = nil
	d.page = 0
	d.hasMore = false
	d.err = nil

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if query == "" {
		d.mu.Unlock()
		d.notify()
		return
	}

	d.timer = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		if d.closed || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.loading++
		d.mu.Unlock()

		if err := d.run(ctx, gen, 0); err != nil {
			d.log.Warn(ctx, "search failed", "query", query, "err", err)
		}
	})
	d.mu.Unlock()
}

// LoadMore fetches the next page and appends it. It is a no-op while a fetch
// is already running, when the result set is exhausted, or when no query is
// active. The in-flight claim happens under the same lock as the guard
// check, so concurrent callers never fetch the same page twice.
func (d *Dispatcher[T]) LoadMore(ctx context.Context) error {
	d.mu.Lock()
	if d.closed || d.loading > 0 || !d.hasMore || d.query == "" {
		d.mu.Unlock()
		return nil
	}
	d.loading++
	gen := d.gen
	page := d.page
	d.mu.Unlock()

	return d.run(ctx, gen, page)
}

// run performs one page fetch for a previously claimed in-flight slot.
// A response whose generation no longer matches (the query changed
// mid-flight) is discarded.
func (d *Dispatcher[T]) run(ctx context.Context, gen uint64, page int) error {
	d.mu.Lock()
	query := d.query
	d.mu.Unlock()

	items, last, err := d.fetch(ctx, query, page, d.pageSize)

	d.mu.Lock()
	d.loading--
	if gen != d.gen {
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		d.err = err
		d.mu.Unlock()
		d.notify()
		return fmt.Errorf("search %q page %d: %w", query, page, err)
	}
	d.err = nil

	if page == 0 {
		d.items = items
	} else {
		d.items = append(d.items, items...)
	}
	d.page = page + 1
	d.hasMore = !last
	d.mu.Unlock()

	d.notify()
	return nil
}

// Results returns a copy of the current result list.
func (d *Dispatcher[T]) Results() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]T, len(d.items))
	copy(out, d.items)
	return out
}

// HasMore reports whether another page can be requested.
func (d *Dispatcher[T]) HasMore() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasMore
}

// Loading reports whether a fetch is currently running.
func (d *Dispatcher[T]) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading > 0
}

// Err returns the failure of the most recent fetch for the active query,
// nil after a success or a query change.
func (d *Dispatcher[T]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Query returns the active query text.
func (d *Dispatcher[T]) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// Close stops any pending debounce timer and disables the dispatcher.
func (d *Dispatcher[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dispatcher[T]) notify() {
	if d.onUpdate != nil {
		d.onUpdate()
	}
}

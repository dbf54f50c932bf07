package sync

import (
	stdsync "sync"

	"github.com/dbarkov/feedline/internal/common"
)

// Item is anything a collection can hold; Key is the identity used for
// dedup merges.
type Item interface {
	Key() string
}

// Cursor is the pagination position of one collection.
//
// HasMore=false is sticky: once the server reports the last page, no further
// fetches happen until an explicit reset. Page is monotonically increasing
// within one continuous scroll session.
type Cursor struct {
	Page    int
	Size    int
	HasMore bool
}

// collection maintains a deduplicated, insertion-ordered item list plus its
// cursor, an in-flight guard and a generation counter.
//
// The generation bumps on every reset; a page response that began before the
// latest reset carries a stale generation and is discarded instead of being
// merged into the new identity's list.
type collection[T Item] struct {
	mu       stdsync.Mutex
	items    []T
	cursor   Cursor
	inFlight bool
	gen      uint64

	// prependNew controls merge order: newest-first collections (feed,
	// stories, notifications) put an incoming page ahead of existing items.
	prependNew bool
}

func newCollection[T Item](pageSize int, prependNew bool) *collection[T] {
	return &collection[T]{
		cursor:     Cursor{Page: 0, Size: pageSize, HasMore: true},
		prependNew: prependNew,
	}
}

// beginFetch claims the in-flight guard. proceed=false (with nil error)
// means the collection is exhausted; err is ErrFetchInProgress when another
// fetch for this collection is already outstanding.
func (c *collection[T]) beginFetch() (page int, gen uint64, proceed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return 0, 0, false, common.ErrFetchInProgress
	}
	if !c.cursor.HasMore {
		return 0, 0, false, nil
	}
	c.inFlight = true
	return c.cursor.Page, c.gen, true, nil
}

// endFetch releases the guard without touching items; used on fetch failure
// so the caller may retry.
func (c *collection[T]) endFetch() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// applyPage releases the guard and merges the fetched page: concatenate in
// collection order, dedup by key keeping the first occurrence, advance the
// cursor. Returns false when gen is stale (a reset happened while the fetch
// was in flight); the page is then dropped on the floor.
func (c *collection[T]) applyPage(gen uint64, page []T, last bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if gen != c.gen {
		return false
	}

	var merged []T
	if c.prependNew {
		merged = append(append(merged, page...), c.items...)
	} else {
		merged = append(append(merged, c.items...), page...)
	}
	c.items = dedupByKey(merged)

	c.cursor.HasMore = !last
	c.cursor.Page++
	return true
}

// replaceAll swaps the whole list in one step (call-and-replace semantics)
// and positions the cursor after page zero.
func (c *collection[T]) replaceAll(items []T, last bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = dedupByKey(items)
	c.cursor.Page = 1
	c.cursor.HasMore = !last
	c.gen++
	c.inFlight = false
}

// reset empties the list and cursor and bumps the generation so in-flight
// responses from the previous life are discarded.
func (c *collection[T]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.cursor = Cursor{Page: 0, Size: c.cursor.Size, HasMore: true}
	c.gen++
}

// snapshot returns a copy of the item list.
func (c *collection[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) cursorCopy() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// update applies fn to the item with the given key, in place. Returns false
// when the key is not present.
func (c *collection[T]) update(key string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Key() == key {
			fn(&c.items[i])
			return true
		}
	}
	return false
}

// dedupByKey filters the list to unique keys, keeping the first occurrence
// and the original order.
func dedupByKey[T Item](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		k := it.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

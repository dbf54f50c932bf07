package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbarkov/feedline/internal/common"
	"github.com/dbarkov/feedline/internal/logging"
)

// recordingFetch serves pages of strings and records every dispatched query.
type recordingFetch struct {
	mu      sync.Mutex
	queries []string
	pages   int // pages available per query before last=true
	err     error
}

func (r *recordingFetch) fetch(ctx context.Context, query string, page, size int) ([]string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, false, r.err
	}
	r.queries = append(r.queries, fmt.Sprintf("%s/%d", query, page))
	items := []string{fmt.Sprintf("%s-%d-a", query, page), fmt.Sprintf("%s-%d-b", query, page)}
	return items, page >= r.pages-1, nil
}

func (r *recordingFetch) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}

func newDispatcher(t *testing.T, f *recordingFetch, debounce time.Duration) *Dispatcher[string] {
	t.Helper()
	d := NewDispatcher(f.fetch, debounce, 20, logging.NewDiscardLogger())
	t.Cleanup(d.Close)
	return d
}

func TestSetQuery_DebounceLastWriterWins(t *testing.T) {
	f := &recordingFetch{pages: 1}
	d := newDispatcher(t, f, 50*time.Millisecond)
	ctx := context.Background()

	d.SetQuery(ctx, "ann")
	d.SetQuery(ctx, "anna") // within the debounce window

	require.Eventually(t, func() bool {
		return len(d.Results()) == 2
	}, time.Second, 5*time.Millisecond)

	// exactly one request, for the final query only
	require.Equal(t, []string{"anna/0"}, f.calls())
	require.Equal(t, []string{"anna-0-a", "anna-0-b"}, d.Results())
}

func TestSetQuery_EmptyClearsImmediately(t *testing.T) {
	f := &recordingFetch{pages: 2}
	d := newDispatcher(t, f, 10*time.Millisecond)
	ctx := context.Background()

	d.SetQuery(ctx, "anna")
	require.Eventually(t, func() bool { return len(d.Results()) > 0 }, time.Second, 5*time.Millisecond)
	require.True(t, d.HasMore())

	d.SetQuery(ctx, "")

	require.Empty(t, d.Results())
	require.False(t, d.HasMore())
	require.NoError(t, d.LoadMore(ctx)) // disabled: no request fires

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, []string{"anna/0"}, f.calls())
}

func TestLoadMore_AppendsNextPage(t *testing.T) {
	f := &recordingFetch{pages: 2}
	d := newDispatcher(t, f, 10*time.Millisecond)
	ctx := context.Background()

	d.SetQuery(ctx, "anna")
	require.Eventually(t, func() bool { return len(d.Results()) == 2 }, time.Second, 5*time.Millisecond)
	require.True(t, d.HasMore())

	require.NoError(t, d.LoadMore(ctx))

	require.Equal(t, []string{"anna/0", "anna/1"}, f.calls())
	require.Len(t, d.Results(), 4)
	require.False(t, d.HasMore())

	// exhausted: further LoadMore is a no-op
	require.NoError(t, d.LoadMore(ctx))
	require.Equal(t, []string{"anna/0", "anna/1"}, f.calls())
}

func TestLoadMore_QueryChangeDiscardsStalePage(t *testing.T) {
	f := &recordingFetch{pages: 3}
	d := newDispatcher(t, f, 5*time.Millisecond)
	ctx := context.Background()

	d.SetQuery(ctx, "anna")
	require.Eventually(t, func() bool { return len(d.Results()) == 2 }, time.Second, 5*time.Millisecond)

	// change the query, then immediately try to page the old result set
	d.SetQuery(ctx, "bob")
	require.NoError(t, d.LoadMore(ctx)) // stale by generation: no-op

	require.Eventually(t, func() bool { return len(d.Results()) == 2 }, time.Second, 5*time.Millisecond)
	for _, r := range d.Results() {
		require.Contains(t, r, "bob")
	}
}

// blockingFetch parks every call on Block after signalling Started.
type blockingFetch struct {
	inner   *recordingFetch
	Block   chan struct{}
	Started chan struct{}
}

func (b *blockingFetch) fetch(ctx context.Context, query string, page, size int) ([]string, bool, error) {
	b.Started <- struct{}{}
	<-b.Block
	return b.inner.fetch(ctx, query, page, size)
}

func TestLoadMore_ConcurrentCallsFetchPageOnce(t *testing.T) {
	f := &recordingFetch{pages: 3}
	b := &blockingFetch{
		inner:   f,
		Block:   make(chan struct{}),
		Started: make(chan struct{}, 2),
	}
	d := NewDispatcher(b.fetch, 5*time.Millisecond, 20, logging.NewDiscardLogger())
	t.Cleanup(d.Close)
	ctx := context.Background()

	d.SetQuery(ctx, "anna")
	<-b.Started
	b.Block <- struct{}{}
	require.Eventually(t, func() bool { return len(d.Results()) == 2 }, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	var loadErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		loadErr = d.LoadMore(ctx)
	}()
	<-b.Started

	// second caller while page 1 is in flight: guarded, no second fetch
	require.NoError(t, d.LoadMore(ctx))

	b.Block <- struct{}{}
	wg.Wait()
	require.NoError(t, loadErr)

	require.Equal(t, []string{"anna/0", "anna/1"}, f.calls())
	require.Len(t, d.Results(), 4)
}

func TestRun_FetchErrorNotifiesAndIsExposed(t *testing.T) {
	f := &recordingFetch{pages: 1, err: common.ErrUnavailable}
	d := newDispatcher(t, f, 5*time.Millisecond)

	var mu sync.Mutex
	updates := 0
	d.OnUpdate(func() {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	d.SetQuery(context.Background(), "anna")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return updates > 0
	}, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, d.Err(), common.ErrUnavailable)

	// a query change clears the sticky failure
	d.SetQuery(context.Background(), "")
	require.NoError(t, d.Err())
}

func TestRun_FetchErrorKeepsResultsEmptyAndRetriable(t *testing.T) {
	f := &recordingFetch{pages: 1, err: common.ErrUnavailable}
	d := newDispatcher(t, f, 5*time.Millisecond)
	ctx := context.Background()

	d.SetQuery(ctx, "anna")
	time.Sleep(30 * time.Millisecond)

	require.Empty(t, d.Results())
	require.False(t, d.Loading())

	// recover and retype: the dispatcher is not stuck
	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	d.SetQuery(ctx, "anna")
	require.Eventually(t, func() bool { return len(d.Results()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestOnUpdate_FiresOnResultChange(t *testing.T) {
	f := &recordingFetch{pages: 1}
	d := NewDispatcher(f.fetch, 5*time.Millisecond, 20, logging.NewDiscardLogger())
	t.Cleanup(d.Close)

	var mu sync.Mutex
	updates := 0
	d.OnUpdate(func() {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	d.SetQuery(context.Background(), "anna")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return updates > 0
	}, time.Second, 5*time.Millisecond)
}

func TestClose_StopsPendingDebounce(t *testing.T) {
	f := &recordingFetch{pages: 1}
	d := NewDispatcher(f.fetch, 20*time.Millisecond, 20, logging.NewDiscardLogger())

	d.SetQuery(context.Background(), "anna")
	d.Close()

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, f.calls())
}

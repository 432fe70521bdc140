package search_test

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/apitest"
	"github.com/openkcm/storefront-client/internal/search"
	"github.com/openkcm/storefront-client/internal/uistate"
)

func newController(t *testing.T, srv *apitest.Server, opts ...search.Option) *search.Controller {
	t.Helper()

	api, err := apiclient.NewHTTPClient(srv.BaseURL(), nil)
	require.NoError(t, err)

	c := search.NewController(t.Context(), api, opts...)
	t.Cleanup(c.Close)

	return c
}

// catalogue answers product searches with the item names registered for each query and page.
func catalogue(totalPages int, byQuery map[string][][]string) apitest.Handler {
	return func(r apitest.Request) (int, any) {
		pages, ok := byQuery[r.Query.Get("key")]
		if !ok {
			return http.StatusOK, map[string]any{"success": true, "data": []any{}}
		}

		page, _ := strconv.Atoi(r.Query.Get("page"))
		if page < 1 || page > len(pages) {
			return http.StatusNotFound, map[string]any{"success": false, "message": "no such page"}
		}

		return http.StatusOK, results(page, totalPages, pages[page-1]...)
	}
}

func results(page, totalPages int, names ...string) map[string]any {
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{"_id": "id-" + n, "name": n})
	}

	return map[string]any{
		"success": true,
		"data":    items,
		"pagination": map[string]any{
			"currentPage":  page,
			"totalPages":   totalPages,
			"itemsPerPage": 2,
		},
	}
}

func names(s search.Session) []string {
	out := make([]string, 0, len(s.Items))
	for _, p := range s.Items {
		out = append(out, p.Name)
	}

	return out
}

type gate struct {
	once sync.Once
	ch   chan struct{}
}

func newGate(t *testing.T) *gate {
	g := &gate{ch: make(chan struct{})}
	t.Cleanup(g.Open)

	return g
}

func (g *gate) Open() { g.once.Do(func() { close(g.ch) }) }
func (g *gate) Wait() { <-g.ch }

func TestController_DebounceCoalescesKeystrokes(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(1, map[string][][]string{
		"sho": {{"shoe", "shoelace"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("s")
	clock.Advance(50 * time.Millisecond)
	c.OnQueryChanged("sh")
	clock.Advance(50 * time.Millisecond)
	c.OnQueryChanged("sho")

	assert.Equal(t, "sho", c.Session().Query)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(search.DefaultDebounce - time.Millisecond)
	assert.Empty(t, srv.Requests(search.PathProductSearch))

	clock.Advance(time.Millisecond)

	reqs := srv.Requests(search.PathProductSearch)
	require.Len(t, reqs, 1)
	assert.Equal(t, "sho", reqs[0].Query.Get("key"))
	assert.Equal(t, "1", reqs[0].Query.Get("page"))

	s := c.Session()
	assert.Equal(t, []string{"shoe", "shoelace"}, names(s))
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, 2, s.ItemsPerPage)
	assert.False(t, s.LoadingFirstPage)
}

func TestController_IgnoresShortQueries(t *testing.T) {
	tests := []struct {
		name  string
		query string
		opts  []search.Option
		want  int
	}{
		{name: "single character", query: "a", want: 0},
		{name: "padded single character", query: "  a  ", want: 0},
		{name: "blank", query: "   ", want: 0},
		{name: "two characters", query: "ab", want: 1},
		{name: "multibyte characters", query: "äö", want: 1},
		{name: "raised minimum", query: "abc", opts: []search.Option{search.WithMinQueryLength(4)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.NewServer(t)
			srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(1, nil))

			clock := &search.FakeClock{}
			c := newController(t, srv, append(tt.opts, search.WithClock(clock))...)

			c.OnQueryChanged(tt.query)
			clock.Advance(search.DefaultDebounce)

			assert.Len(t, srv.Requests(search.PathProductSearch), tt.want)
			assert.Equal(t, tt.query, c.Session().Query)
		})
	}
}

func TestController_TrimsQuery(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(1, map[string][][]string{
		"lamp": {{"desk lamp"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("  lamp ")
	clock.Advance(search.DefaultDebounce)

	reqs := srv.Requests(search.PathProductSearch)
	require.Len(t, reqs, 1)
	assert.Equal(t, "lamp", reqs[0].Query.Get("key"))
	assert.Equal(t, []string{"desk lamp"}, names(c.Session()))
}

func TestController_PagesAppendAndNewQueryReplaces(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(3, map[string][][]string{
		"shoe":  {{"a", "b"}, {"c", "d"}, {"e"}},
		"phone": {{"x", "y"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("shoe")
	clock.Advance(search.DefaultDebounce)
	assert.Equal(t, []string{"a", "b"}, names(c.Session()))

	c.LoadMore()
	s := c.Session()
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(s))
	assert.Equal(t, 2, s.Page)

	c.LoadMore()
	s = c.Session()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(s))
	assert.Equal(t, 3, s.Page)

	c.LoadMore()
	assert.Len(t, srv.Requests(search.PathProductSearch), 3)

	c.OnQueryChanged("phone")
	clock.Advance(search.DefaultDebounce)
	s = c.Session()
	assert.Equal(t, []string{"x", "y"}, names(s))
	assert.Equal(t, 1, s.Page)

	var pages []string
	for _, r := range srv.Requests(search.PathProductSearch) {
		pages = append(pages, r.Query.Get("key")+"/"+r.Query.Get("page"))
	}
	assert.Equal(t, []string{"shoe/1", "shoe/2", "shoe/3", "phone/1"}, pages)
}

func TestController_LoadMoreWaitsForEditedQuery(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(3, map[string][][]string{
		"shoe":  {{"shoe1"}, {"shoe2"}, {"shoe3"}},
		"shirt": {{"shirt1"}, {"shirt2"}, {"shirt3"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("shoe")
	clock.Advance(search.DefaultDebounce)

	c.OnQueryChanged("shirt")
	c.LoadMore()

	s := c.Session()
	assert.Equal(t, []string{"shoe1"}, names(s))
	assert.Equal(t, 1, s.Page)
	assert.Len(t, srv.Requests(search.PathProductSearch), 1)

	clock.Advance(search.DefaultDebounce)
	c.LoadMore()

	s = c.Session()
	assert.Equal(t, []string{"shirt1", "shirt2"}, names(s))
	assert.Equal(t, 2, s.Page)

	var pages []string
	for _, r := range srv.Requests(search.PathProductSearch) {
		pages = append(pages, r.Query.Get("key")+"/"+r.Query.Get("page"))
	}
	assert.Equal(t, []string{"shoe/1", "shirt/1", "shirt/2"}, pages)
}

func TestController_LoadMoreOnLastPage(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(1, map[string][][]string{
		"desk": {{"oak desk"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.LoadMore()
	assert.Empty(t, srv.Requests(search.PathProductSearch))

	c.OnQueryChanged("desk")
	clock.Advance(search.DefaultDebounce)
	c.LoadMore()

	assert.Len(t, srv.Requests(search.PathProductSearch), 1)
	assert.Equal(t, 1, c.Session().Page)
}

func TestController_LoadMoreFailure(t *testing.T) {
	tests := []struct {
		name      string
		rollback  bool
		wantPage  int
		wantPages []string
	}{
		{name: "cursor stays advanced", rollback: false, wantPage: 2, wantPages: []string{"1", "2", "3"}},
		{name: "cursor rolled back", rollback: true, wantPage: 1, wantPages: []string{"1", "2", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.NewServer(t)
			srv.Handle(http.MethodGet, search.PathProductSearch, func(r apitest.Request) (int, any) {
				if r.Query.Get("page") == "1" {
					return http.StatusOK, results(1, 3, "a", "b")
				}
				return http.StatusInternalServerError, map[string]any{"success": false, "message": "boom"}
			})

			clock := &search.FakeClock{}
			c := newController(t, srv, search.WithClock(clock), search.WithRollbackOnFailure(tt.rollback))

			c.OnQueryChanged("shoe")
			clock.Advance(search.DefaultDebounce)

			c.LoadMore()
			s := c.Session()
			assert.Equal(t, tt.wantPage, s.Page)
			assert.Equal(t, []string{"a", "b"}, names(s))
			assert.False(t, s.LoadingNextPage)

			c.LoadMore()

			var pages []string
			for _, r := range srv.Requests(search.PathProductSearch) {
				pages = append(pages, r.Query.Get("page"))
			}
			assert.Equal(t, tt.wantPages, pages)
		})
	}
}

func TestController_DropsStaleResponse(t *testing.T) {
	srv := apitest.NewServer(t)
	started := make(chan struct{}, 1)
	g := newGate(t)

	srv.Handle(http.MethodGet, search.PathProductSearch, func(r apitest.Request) (int, any) {
		if r.Query.Get("key") == "ab" {
			started <- struct{}{}
			g.Wait()
			return http.StatusOK, results(1, 1, "stale")
		}
		return http.StatusOK, results(1, 1, "fresh")
	})

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("ab")
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.Advance(search.DefaultDebounce)
	}()
	<-started

	assert.True(t, c.Session().LoadingFirstPage)

	c.OnQueryChanged("abc")
	g.Open()
	<-done

	s := c.Session()
	assert.Equal(t, "abc", s.Query)
	assert.Empty(t, s.Items)
	assert.False(t, s.LoadingFirstPage)

	clock.Advance(search.DefaultDebounce)
	assert.Equal(t, []string{"fresh"}, names(c.Session()))
}

func TestController_NewQuerySupersedesFetchInFlight(t *testing.T) {
	srv := apitest.NewServer(t)
	started := make(chan struct{}, 1)
	g := newGate(t)

	srv.Handle(http.MethodGet, search.PathProductSearch, func(r apitest.Request) (int, any) {
		if r.Query.Get("key") == "ab" {
			started <- struct{}{}
			g.Wait()
			return http.StatusOK, results(1, 1, "stale")
		}
		return http.StatusOK, results(1, 1, "fresh")
	})

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("ab")
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.Advance(search.DefaultDebounce)
	}()
	<-started

	c.OnQueryChanged("abcd")
	clock.Advance(search.DefaultDebounce)
	<-done

	assert.Equal(t, []string{"fresh"}, names(c.Session()))

	g.Open()
	assert.Equal(t, []string{"fresh"}, names(c.Session()))
}

func TestController_ClearingQueryDropsResults(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(2, map[string][][]string{
		"shoe": {{"a"}, {"b"}},
	}))

	clock := &search.FakeClock{}
	c := newController(t, srv, search.WithClock(clock))

	c.OnQueryChanged("shoe")
	clock.Advance(search.DefaultDebounce)
	require.Equal(t, []string{"a"}, names(c.Session()))

	c.OnQueryChanged("")
	clock.Advance(search.DefaultDebounce)

	s := c.Session()
	assert.Empty(t, s.Items)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 1, s.TotalPages)
	assert.Len(t, srv.Requests(search.PathProductSearch), 1)
}

func TestController_Notifications(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(http.MethodGet, search.PathProductSearch, catalogue(1, map[string][][]string{
		"lamp": {{"desk lamp"}},
	}))

	var (
		mu        sync.Mutex
		snapshots []search.Session
		signals   []uistate.Signal
	)
	bus := uistate.NewBus()
	bus.Subscribe(func(s uistate.Signal) {
		mu.Lock()
		defer mu.Unlock()
		signals = append(signals, s)
	})

	clock := &search.FakeClock{}
	c := newController(t, srv,
		search.WithClock(clock),
		search.WithSignals(bus),
		search.WithOnChange(func(s search.Session) {
			mu.Lock()
			defer mu.Unlock()
			snapshots = append(snapshots, s)
		}),
	)

	c.OnQueryChanged("lamp")
	clock.Advance(search.DefaultDebounce)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, snapshots)
	assert.Equal(t, "lamp", snapshots[0].Query)
	assert.Equal(t, []string{"desk lamp"}, names(snapshots[len(snapshots)-1]))
	assert.Equal(t, []uistate.Signal{
		uistate.Loading{Source: "search", Active: true},
		uistate.Loading{Source: "search", Active: false},
	}, signals)
}

// blockingClient never answers until the request context ends.
type blockingClient struct {
	started chan struct{}
}

func (b *blockingClient) Get(ctx context.Context, _ string, _ url.Values) (apiclient.Envelope, error) {
	b.started <- struct{}{}
	<-ctx.Done()

	return apiclient.Envelope{}, ctx.Err()
}

func (b *blockingClient) Post(ctx context.Context, _ string, _ any) (apiclient.Envelope, error) {
	return apiclient.Envelope{}, nil
}

func (b *blockingClient) Delete(ctx context.Context, _ string) (apiclient.Envelope, error) {
	return apiclient.Envelope{}, nil
}

func TestController_CloseReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	api := &blockingClient{started: make(chan struct{}, 1)}
	c := search.NewController(context.Background(), api, search.WithDebounce(10*time.Millisecond))

	c.OnQueryChanged("lamp")
	<-api.started

	c.OnQueryChanged("lamps")
	c.Close()
	c.OnQueryChanged("lampshade")
	c.LoadMore()

	s := c.Session()
	assert.Equal(t, "lamps", s.Query)
	assert.False(t, s.LoadingFirstPage)
}

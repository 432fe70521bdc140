// Package search turns keystrokes into debounced, paginated product searches.
package search

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/catalog"
	"github.com/openkcm/storefront-client/internal/paginate"
	"github.com/openkcm/storefront-client/internal/serviceerr"
	"github.com/openkcm/storefront-client/internal/uistate"
)

const (
	PathProductSearch = "product/productSearch"

	DefaultDebounce       = 500 * time.Millisecond
	DefaultMinQueryLength = 2

	signalSource = "search"
)

// Session is a snapshot of one search interaction.
type Session struct {
	Query            string
	Page             int
	TotalPages       int
	ItemsPerPage     int
	Items            []catalog.Product
	LoadingFirstPage bool
	LoadingNextPage  bool
}

type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

func WithMinQueryLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minQueryLength = n
		}
	}
}

// WithRollbackOnFailure moves the page cursor back when a LoadMore fetch fails,
// so that the page is requested again on the next LoadMore.
func WithRollbackOnFailure(rollback bool) Option {
	return func(c *Controller) { c.rollbackOnFailure = rollback }
}

func WithSignals(p uistate.Publisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.signals = p
		}
	}
}

// WithOnChange registers fn to be called with a snapshot after every state change.
func WithOnChange(fn func(Session)) Option {
	return func(c *Controller) { c.onChange = fn }
}

type fetch struct {
	ctx    context.Context
	seq    uint64
	query  string
	page   int
	cancel context.CancelFunc
}

// Controller owns one search session. At most one fetch is in flight; a fetch
// for a different query or page supersedes it and its response is dropped.
type Controller struct {
	api               apiclient.Client
	signals           uistate.Publisher
	onChange          func(Session)
	debounce          time.Duration
	minQueryLength    int
	rollbackOnFailure bool
	afterFunc         afterFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	query        string
	committed    string
	cursor       paginate.Cursor
	itemsPerPage int
	items        []catalog.Product
	pending      timer
	inFlight     *fetch
	seq          uint64
	closed       bool
}

func NewController(ctx context.Context, api apiclient.Client, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(ctx)

	c := &Controller{
		api:            api,
		signals:        uistate.Discard,
		debounce:       DefaultDebounce,
		minQueryLength: DefaultMinQueryLength,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		ctx:    ctx,
		cancel: cancel,
		cursor: paginate.NewCursor(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// OnQueryChanged stores text for display and restarts the debounce window.
func (c *Controller) OnQueryChanged(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.query = text
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = c.afterFunc(c.debounce, func() { c.fire(text) })
	c.mu.Unlock()

	c.notify()
}

// fire runs when the debounce window for text elapsed uncancelled.
func (c *Controller) fire(text string) {
	c.mu.Lock()
	if c.closed || c.query != text {
		c.mu.Unlock()
		return
	}
	c.pending = nil

	c.items = nil
	c.cursor.Reset()
	c.itemsPerPage = 0

	query := strings.TrimSpace(text)
	c.committed = query
	if query == "" {
		c.supersedeLocked()
		c.mu.Unlock()
		c.notify()
		return
	}
	c.mu.Unlock()

	c.notify()
	c.fetchPage(query, 1, false)
}

// LoadMore fetches the next page of the query the loaded items belong to.
// It does nothing when the last page was reached, a fetch is in flight or
// an edited query is still waiting out the debounce window. The page cursor
// is advanced before the fetch is dispatched.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.closed || c.pending != nil || c.inFlight != nil || !c.cursor.HasMore() {
		c.mu.Unlock()
		return
	}

	query := c.committed
	if utf8.RuneCountInString(query) < c.minQueryLength {
		c.mu.Unlock()
		return
	}
	page, _ := c.cursor.Advance()
	c.mu.Unlock()

	c.fetchPage(query, page, true)
}

// Close cancels the pending debounce timer and any fetch in flight.
// Responses arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.supersedeLocked()
	c.cancel()
}

func (c *Controller) fetchPage(query string, page int, optimistic bool) {
	f, ok := c.dispatch(query, page)
	if !ok {
		return
	}
	defer f.cancel()

	ctx := slogctx.With(f.ctx, "query", query, "page", page)
	c.signals.Publish(uistate.Loading{Source: signalSource, Active: true})
	defer c.signals.Publish(uistate.Loading{Source: signalSource, Active: false})

	items, pagination, err := c.request(ctx, f)

	c.mu.Lock()
	if c.inFlight == nil || c.inFlight.seq != f.seq {
		c.mu.Unlock()
		slogctx.Debug(ctx, "Dropping a superseded search response")
		return
	}
	c.inFlight = nil

	if strings.TrimSpace(c.query) != f.query {
		c.mu.Unlock()
		slogctx.Debug(ctx, "Dropping a search response for a stale query")
		c.notify()
		return
	}

	if err != nil {
		if optimistic && c.rollbackOnFailure {
			c.cursor.Rewind()
		}
		c.mu.Unlock()
		slogctx.Warn(ctx, "Search failed", "error", err)
		c.notify()
		return
	}

	c.items = paginate.Merge(c.items, items, page)
	if page == 1 {
		c.cursor.Apply(pagination.CurrentPage, pagination.TotalPages)
		c.itemsPerPage = pagination.ItemsPerPage
	} else {
		c.cursor.Apply(page, pagination.TotalPages)
	}
	c.mu.Unlock()

	c.notify()
}

// dispatch registers a fetch for query and page. It refuses queries below the
// minimum length and duplicates of the fetch in flight; any other fetch in
// flight is superseded.
func (c *Controller) dispatch(query string, page int) (*fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}

	if utf8.RuneCountInString(query) < c.minQueryLength {
		return nil, false
	}

	if c.inFlight != nil && c.inFlight.query == query && c.inFlight.page == page {
		return nil, false
	}
	c.supersedeLocked()

	ctx, cancel := context.WithCancel(c.ctx)
	c.seq++
	f := &fetch{ctx: ctx, seq: c.seq, query: query, page: page, cancel: cancel}
	c.inFlight = f

	return f, true
}

func (c *Controller) supersedeLocked() {
	if c.inFlight != nil {
		c.inFlight.cancel()
		c.inFlight = nil
	}
}

func (c *Controller) request(ctx context.Context, f *fetch) ([]catalog.Product, apiclient.Pagination, error) {
	env, err := c.api.Get(ctx, PathProductSearch, url.Values{
		"page": {strconv.Itoa(f.page)},
		"key":  {f.query},
	})
	if err != nil {
		return nil, apiclient.Pagination{}, err
	}
	if !env.Succeeded() {
		return nil, apiclient.Pagination{}, serviceerr.Protocol(env.Message)
	}

	var items []catalog.Product
	if err := apiclient.DecodeData(env, &items); err != nil {
		return nil, apiclient.Pagination{}, serviceerr.Protocol(err.Error())
	}

	return items, env.Page(), nil
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}

	c.onChange(c.Session())
}

func (c *Controller) snapshot() Session {
	s := Session{
		Query:        c.query,
		Page:         c.cursor.Page,
		TotalPages:   c.cursor.TotalPages,
		ItemsPerPage: c.itemsPerPage,
		Items:        slices.Clone(c.items),
	}

	if c.inFlight != nil {
		s.LoadingFirstPage = c.inFlight.page == 1
		s.LoadingNextPage = c.inFlight.page > 1
	}

	return s
}

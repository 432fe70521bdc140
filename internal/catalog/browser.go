package catalog

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/apiclient"
	"github.com/openkcm/storefront-client/internal/paginate"
	"github.com/openkcm/storefront-client/internal/serviceerr"
	"github.com/openkcm/storefront-client/internal/uistate"
)

const (
	PathManufacturerProducts = "product/manufacturerProducts"

	signalSource = "catalog"
)

var ErrNoManufacturer = errors.New("manufacturer ID is required")

// Listing is a snapshot of the products loaded so far.
type Listing struct {
	ManufacturerID string
	Page           int
	TotalPages     int
	ItemsPerPage   int
	Items          []Product
	Loading        bool
}

type BrowserOption func(*Browser)

func WithSignals(p uistate.Publisher) BrowserOption {
	return func(b *Browser) {
		if p != nil {
			b.signals = p
		}
	}
}

// Browser pages through the products of one manufacturer.
type Browser struct {
	api            apiclient.Client
	signals        uistate.Publisher
	manufacturerID string

	mu           sync.Mutex
	cursor       paginate.Cursor
	itemsPerPage int
	items        []Product
	loading      bool
	generation   uint64
}

func NewBrowser(api apiclient.Client, manufacturerID string, opts ...BrowserOption) (*Browser, error) {
	if manufacturerID == "" {
		return nil, ErrNoManufacturer
	}

	b := &Browser{
		api:            api,
		signals:        uistate.Discard,
		manufacturerID: manufacturerID,
		cursor:         paginate.NewCursor(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b, nil
}

func (b *Browser) Listing() Listing {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.listing()
}

// Load fetches the first page and replaces everything loaded before.
// A Load supersedes a LoadMore still in flight.
func (b *Browser) Load(ctx context.Context) (Listing, error) {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.loading = true
	b.mu.Unlock()

	return b.fetch(ctx, gen, 1)
}

// LoadMore fetches the next page. It does nothing on the last page or
// while a fetch is in flight.
func (b *Browser) LoadMore(ctx context.Context) (Listing, error) {
	b.mu.Lock()
	if b.loading || !b.cursor.HasMore() {
		defer b.mu.Unlock()
		return b.listing(), nil
	}
	gen := b.generation
	page := b.cursor.Page + 1
	b.loading = true
	b.mu.Unlock()

	return b.fetch(ctx, gen, page)
}

func (b *Browser) fetch(ctx context.Context, gen uint64, page int) (Listing, error) {
	ctx = slogctx.With(ctx, "manufacturerId", b.manufacturerID, "page", page)

	b.signals.Publish(uistate.Loading{Source: signalSource, Active: true})
	defer b.signals.Publish(uistate.Loading{Source: signalSource, Active: false})

	items, pagination, err := b.request(ctx, page)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		slogctx.Debug(ctx, "Dropping a superseded manufacturer products response")
		return b.listing(), serviceerr.ErrDiscarded
	}
	b.loading = false

	if err != nil {
		slogctx.Warn(ctx, "Loading manufacturer products failed", "error", err)
		return b.listing(), err
	}

	b.items = paginate.Merge(b.items, items, page)
	if page == 1 {
		b.cursor.Apply(pagination.CurrentPage, pagination.TotalPages)
		b.itemsPerPage = pagination.ItemsPerPage
	} else {
		b.cursor.Apply(page, pagination.TotalPages)
	}

	return b.listing(), nil
}

func (b *Browser) request(ctx context.Context, page int) ([]Product, apiclient.Pagination, error) {
	env, err := b.api.Get(ctx, PathManufacturerProducts, url.Values{
		"manufacturerId": {b.manufacturerID},
		"page":           {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, apiclient.Pagination{}, err
	}
	if !env.Succeeded() {
		return nil, apiclient.Pagination{}, serviceerr.Protocol(env.Message)
	}

	var items []Product
	if err := apiclient.DecodeData(env, &items); err != nil {
		return nil, apiclient.Pagination{}, serviceerr.Protocol(err.Error())
	}

	return items, env.Page(), nil
}

func (b *Browser) listing() Listing {
	return Listing{
		ManufacturerID: b.manufacturerID,
		Page:           b.cursor.Page,
		TotalPages:     b.cursor.TotalPages,
		ItemsPerPage:   b.itemsPerPage,
		Items:          slices.Clone(b.items),
		Loading:        b.loading,
	}
}

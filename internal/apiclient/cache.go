package apiclient

import (
	"context"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	slogctx "github.com/veqryn/slog-context"
)

// CachingClient caches successful GET envelopes for a short time and
// coalesces identical GETs that are in flight at the same time.
// POST and DELETE are passed through.
type CachingClient struct {
	next  Client
	cache *cache.Cache
	group singleflight.Group
}

var _ = Client(&CachingClient{})

func NewCachingClient(next Client, ttl, cleanupInterval time.Duration) *CachingClient {
	return &CachingClient{
		next:  next,
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (c *CachingClient) Get(ctx context.Context, path string, query url.Values) (Envelope, error) {
	key := cacheKey(path, query)
	if cached, ok := c.cache.Get(key); ok {
		slogctx.Debug(ctx, "Serving storefront API response from cache", "path", path)
		return cached.(Envelope), nil
	}

	// Joined callers must not see the cancellation of the caller that started the flight.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		env, err := c.next.Get(shared, path, query)
		if err != nil {
			return Envelope{}, err
		}

		if env.Succeeded() {
			c.cache.SetDefault(key, env)
		}

		return env, nil
	})

	select {
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Envelope{}, res.Err
		}

		return res.Val.(Envelope), nil
	}
}

func (c *CachingClient) Post(ctx context.Context, path string, body any) (Envelope, error) {
	return c.next.Post(ctx, path, body)
}

func (c *CachingClient) Delete(ctx context.Context, path string) (Envelope, error) {
	return c.next.Delete(ctx, path)
}

// Flush drops every cached response, e.g. after signing in or out.
func (c *CachingClient) Flush() {
	c.cache.Flush()
}

func cacheKey(path string, query url.Values) string {
	return path + "?" + query.Encode()
}

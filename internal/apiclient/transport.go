package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/serviceerr"
)

const headerAPIKey = "X-API-Key"

// TokenSource yields the bearer token of the signed-in user.
// It returns an error wrapping serviceerr.ErrNotFound when nobody is signed in.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type authRoundTripper struct {
	tokens TokenSource
	apiKey string
	next   http.RoundTripper
}

// NewHTTPTransportClient returns an http.Client that authenticates every
// request with the API key and, when available, the signed-in user's token.
func NewHTTPTransportClient(tokens TokenSource, apiKey string, timeout time.Duration, next http.RoundTripper) *http.Client {
	if next == nil {
		next = http.DefaultTransport
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &authRoundTripper{
			tokens: tokens,
			apiKey: apiKey,
			next:   next,
		},
	}
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.apiKey != "" {
		req.Header.Set(headerAPIKey, t.apiKey)
	}

	if t.tokens != nil {
		token, err := t.tokens.AccessToken(req.Context())
		switch {
		case err == nil && token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		case err != nil && !errors.Is(err, serviceerr.ErrNotFound):
			slogctx.Warn(req.Context(), "Could not load the access token; sending the request anonymously", "error", err)
		}
	}

	return t.next.RoundTrip(req)
}

// Package apiclient is the facade in front of the storefront REST API.
// Every call resolves to a normalized Envelope; transport failures are
// reported as errors wrapping serviceerr.ErrTransport.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/storefront-client/internal/serviceerr"
)

const (
	instrumentationName = "github.com/openkcm/storefront-client/internal/apiclient"
	maxBodySize         = 10 << 20
	headerRequestID     = "X-Request-ID"
)

type Client interface {
	Get(ctx context.Context, path string, query url.Values) (Envelope, error)
	Post(ctx context.Context, path string, body any) (Envelope, error)
	Delete(ctx context.Context, path string) (Envelope, error)
}

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Int64Histogram
}

var _ = Client(&HTTPClient{})

// NewHTTPClient creates a client for the API rooted at baseURL.
// A nil httpClient falls back to http.DefaultClient.
func NewHTTPClient(baseURL string, httpClient *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"storefront.api.request_count",
		metric.WithDescription("Outgoing storefront API request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request_count meter: %w", err)
	}

	duration, err := meter.Int64Histogram(
		"storefront.api.duration",
		metric.WithDescription("Outgoing storefront API end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration meter: %w", err)
	}

	return &HTTPClient{
		baseURL:  u,
		http:     httpClient,
		tracer:   otel.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
	}, nil
}

func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) (Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body any) (Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *HTTPClient) Delete(ctx context.Context, path string) (Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) (Envelope, error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("api.path", path),
	}

	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	env, status, err := c.roundTrip(ctx, method, path, query, body)

	attrs = append(attrs, attribute.Int("http.status_code", status), attribute.Bool("api.success", err == nil && env.Succeeded()))
	c.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.duration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(attrs...))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Envelope{}, err
	}

	return env, nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (Envelope, int, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, 0, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return Envelope{}, 0, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	ctx = slogctx.With(ctx, "request_id", requestID, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		slogctx.Warn(ctx, "Storefront API call failed", "error", err)
		return Envelope{}, 0, serviceerr.Transport(fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Envelope{}, resp.StatusCode, serviceerr.Transport(fmt.Errorf("reading response: %w", err))
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slogctx.Warn(ctx, "Storefront API returned an undecodable body", "status", resp.StatusCode, "error", err)
		return Envelope{}, resp.StatusCode, serviceerr.Transport(fmt.Errorf("decoding response with status %d: %w", resp.StatusCode, err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		slogctx.Info(ctx, "Storefront API returned an error status", "status", resp.StatusCode, "message", env.Message)
	} else {
		slogctx.Debug(ctx, "Storefront API call completed", "status", resp.StatusCode)
	}

	return env, resp.StatusCode, nil
}

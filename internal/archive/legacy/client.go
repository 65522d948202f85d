// Package legacy is the HTTP client for the legacy conference origin that
// hosts archived years under /{year}/.
package legacy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"confsite/internal/platform/tracer"
)

// StatusError indicates the legacy origin answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("legacy: unexpected status %d from %s", e.StatusCode, e.URL)
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches and probes resources on the legacy origin. It sets no
// timeout of its own; requests end when the caller's context ends.
type Client struct {
	origin string
	http   HTTPDoer
	tracer tracer.Tracer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New creates a client for origin, e.g. "https://legacy.example.org".
func New(origin string, opts ...Option) *Client {
	c := &Client{
		origin: strings.TrimRight(origin, "/"),
		http:   http.DefaultClient,
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin returns the configured origin without a trailing slash.
func (c *Client) Origin() string {
	return c.origin
}

// URL joins origin, year and path as {origin}/{year}{path}. The path is
// appended verbatim, so callers pass a leading slash.
func (c *Client) URL(year, path string) string {
	return c.origin + "/" + year + path
}

// YearRoot is the root document of an archived year.
func (c *Client) YearRoot(year string) string {
	return c.URL(year, "/")
}

// Fetch issues an uncached GET. On a 2xx status the caller owns the
// response body. Any other status is returned as *StatusError with the
// body already closed.
func (c *Client) Fetch(ctx context.Context, rawURL string) (_ *http.Response, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLegacyFetch, tracer.String(tracer.AttrURL, rawURL))
	defer func() { span.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create legacy request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("legacy fetch %s: %w", rawURL, err)
	}
	span.SetAttributes(tracer.Int(tracer.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return resp, nil
}

// Probe checks whether rawURL exists with a HEAD request. A non-2xx status
// is reported as (false, nil); only transport failures return an error.
func (c *Client) Probe(ctx context.Context, rawURL string) (_ bool, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanLegacyProbe, tracer.String(tracer.AttrURL, rawURL))
	defer func() { span.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("create legacy probe: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("legacy probe %s: %w", rawURL, err)
	}
	resp.Body.Close()

	span.SetAttributes(tracer.Int(tracer.AttrStatusCode, resp.StatusCode))
	found := resp.StatusCode >= 200 && resp.StatusCode <= 299
	span.SetAttributes(tracer.Bool(tracer.AttrFound, found))
	return found, nil
}

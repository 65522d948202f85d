// Package page serves archived conference years: a redirect for the
// current year, the legacy page with rewritten links when it can be
// fetched, and an iframe of the legacy origin otherwise.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"confsite/internal/archive/metrics"
	"confsite/internal/archive/rewrite"
	"confsite/pkg/platform/circuit"
)

// PathPrefix is the route prefix for archived years.
const PathPrefix = "/archive"

// maxDocumentSize caps how much of a legacy page is read for rewriting.
const maxDocumentSize = 8 << 20

// Mode is the terminal state of a page resolution.
type Mode string

const (
	ModeRedirect  Mode = "redirect"
	ModeRewritten Mode = "rewritten"
	ModeIframe    Mode = "iframe"
)

// Result is a resolved archive page.
type Result struct {
	Mode       Mode
	RedirectTo string
	HTML       []byte
	Cached     bool
}

// Fetcher retrieves legacy documents.
type Fetcher interface {
	YearRoot(year string) string
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// YearSource reports the current conference year.
type YearSource interface {
	CurrentYear(ctx context.Context) string
}

type Resolver struct {
	legacy  Fetcher
	years   YearSource
	cache   *Cache
	breaker *circuit.Breaker
	fills   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithCache(c *Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithBreaker skips legacy fetches while b is open.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Resolver) {
		r.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(legacy Fetcher, years YearSource, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{legacy: legacy, years: years, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the cache key and route path for year.
func Path(year string) string {
	return PathPrefix + "/" + year
}

// Resolve produces the page for year. Fetch and rewrite failures degrade to
// the iframe; only a render failure is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, year string) (Result, error) {
	if year == r.years.CurrentYear(ctx) {
		r.metrics.IncPageRender(string(ModeRedirect))
		return Result{Mode: ModeRedirect, RedirectTo: "/"}, nil
	}

	path := Path(year)
	if r.cache != nil {
		page, ok := r.cache.Get(path)
		r.metrics.IncPageCache(ok)
		if ok {
			r.metrics.IncPageRender(string(ModeRewritten))
			return Result{Mode: ModeRewritten, HTML: page, Cached: true}, nil
		}
	}

	// Concurrent misses for the same path share one legacy fetch. A caller
	// whose context ends stops waiting and gets the iframe.
	ch := r.fills.DoChan(path, func() (any, error) {
		return r.fill(ctx, year, path)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "gave up waiting for legacy page, serving iframe",
			"year", year,
			"error", ctx.Err(),
		)
		return r.iframe(year)
	case res = <-ch:
	}
	if res.Err != nil {
		return Result{}, res.Err
	}

	f := res.Val.(filled)
	if f.fetchErr != nil {
		r.logger.WarnContext(ctx, "legacy page unavailable, serving iframe",
			"year", year,
			"url", r.legacy.YearRoot(year),
			"error", f.fetchErr,
		)
		return r.iframe(year)
	}
	r.metrics.IncPageRender(string(ModeRewritten))
	return Result{Mode: ModeRewritten, HTML: f.page, Cached: f.cached}, nil
}

// filled is the shared outcome of one fill. fetchErr is a fetch or rewrite
// failure, which callers turn into the iframe.
type filled struct {
	page     []byte
	cached   bool
	fetchErr error
}

// fill fetches, rewrites and renders the page for year and caches it. Only
// a render failure is returned as an error.
func (r *Resolver) fill(ctx context.Context, year, path string) (filled, error) {
	if r.cache != nil {
		// An earlier fill may have finished after the caller's lookup.
		if page, ok := r.cache.Get(path); ok {
			return filled{page: page, cached: true}, nil
		}
	}

	doc, err := r.fetchRewritten(ctx, year)
	if err != nil {
		return filled{fetchErr: err}, nil
	}

	page, err := renderRewritten(year, doc.Head, doc.Body)
	if err != nil {
		return filled{}, err
	}
	if r.cache != nil {
		r.cache.Set(path, page)
	}
	return filled{page: page}, nil
}

var errBreakerOpen = errors.New("legacy page circuit open")

func (r *Resolver) fetchRewritten(ctx context.Context, year string) (rewrite.Document, error) {
	if r.breaker != nil && !r.breaker.Allow() {
		return rewrite.Document{}, errBreakerOpen
	}

	raw, err := r.fetch(ctx, year)
	if err != nil {
		r.recordFailure(ctx)
		return rewrite.Document{}, err
	}
	r.recordSuccess(ctx)

	return rewrite.Rewrite(raw, year)
}

func (r *Resolver) fetch(ctx context.Context, year string) (string, error) {
	resp, err := r.legacy.Fetch(ctx, r.legacy.YearRoot(year))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("read legacy page: %w", err)
	}
	return string(body), nil
}

func (r *Resolver) iframe(year string) (Result, error) {
	page, err := renderIframe(year, r.legacy.YearRoot(year))
	if err != nil {
		return Result{}, err
	}
	r.metrics.IncPageRender(string(ModeIframe))
	return Result{Mode: ModeIframe, HTML: page}, nil
}

func (r *Resolver) recordFailure(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if change := r.breaker.RecordFailure(); change.Opened {
		r.metrics.SetBreakerOpen(true)
		r.logger.WarnContext(ctx, "legacy page circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Resolver) recordSuccess(ctx context.Context) {
	if r.breaker == nil {
		return
	}
	if change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.SetBreakerOpen(false)
		r.logger.InfoContext(ctx, "legacy page circuit closed", "breaker", r.breaker.Name())
	}
}

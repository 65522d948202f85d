// Package resolver locates orphaned legacy assets: files requested from
// the new site's origin that only exist under some archived year.
package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/semaphore"

	"confsite/internal/archive/metrics"
	"confsite/internal/platform/tracer"
)

// ImageYears are the archive years scanned for images, newest first, so an
// image present in several years resolves to the newest copy.
var ImageYears = []string{
	"2024", "2023", "2022", "2021", "2020", "2019", "2018", "2017",
	"2016", "2015", "2014", "2013", "2012", "2011", "2010",
}

var refererYear = regexp.MustCompile(`/archive/(\d{4})`)

// YearFromReferer extracts the archive year from a referring page URL such
// as https://site/archive/2019/ or /archive/2019.
func YearFromReferer(referer string) (string, bool) {
	m := refererYear.FindStringSubmatch(referer)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Prober checks resource existence on the legacy origin.
type Prober interface {
	URL(year, path string) string
	Probe(ctx context.Context, url string) (bool, error)
}

// Resolver maps an orphaned asset path to a legacy URL. Probes share one
// process-wide concurrency limit; probe outcomes are cached but transport
// failures never are.
type Resolver struct {
	legacy  Prober
	cache   ProbeCache
	sem     *semaphore.Weighted
	years   []string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithCache(c ProbeCache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithConcurrency bounds in-flight probes against the legacy origin.
func WithConcurrency(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithYears replaces the image scan order.
func WithYears(years []string) Option {
	return func(r *Resolver) {
		r.years = years
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

const defaultConcurrency = 8

func New(legacy Prober, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		legacy: legacy,
		sem:    semaphore.NewWeighted(defaultConcurrency),
		years:  ImageYears,
		logger: logger,
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAsset finds a generic asset for the archive year named in the
// Referer. Without a year in the referer nothing is probed.
func (r *Resolver) ResolveAsset(ctx context.Context, referer, path string) (string, bool) {
	year, ok := YearFromReferer(referer)
	if !ok {
		return "", false
	}
	target := r.legacy.URL(year, "/assets/"+strings.TrimPrefix(path, "/"))
	if !r.exists(ctx, target) {
		return "", false
	}
	return target, true
}

// ResolveImage scans the candidate years newest first and stops at the
// first year that has the image.
func (r *Resolver) ResolveImage(ctx context.Context, path string) (_ string, found bool) {
	path = "/images/" + strings.TrimPrefix(path, "/")

	ctx, span := r.tracer.Start(ctx, tracer.SpanAssetScan, tracer.String(tracer.AttrURL, path))
	probes := 0
	defer func() {
		span.SetAttributes(tracer.Int(tracer.AttrProbes, probes), tracer.Bool(tracer.AttrFound, found))
		span.End(nil)
		r.metrics.ObserveProbesPerScan(probes)
	}()

	for _, year := range r.years {
		if ctx.Err() != nil {
			return "", false
		}
		target := r.legacy.URL(year, path)
		probes++
		if r.exists(ctx, target) {
			span.SetAttributes(tracer.String(tracer.AttrYear, year))
			return target, true
		}
	}
	return "", false
}

// exists reports whether target exists. Every failure counts as "not
// found" and is logged, never returned.
func (r *Resolver) exists(ctx context.Context, target string) bool {
	if r.cache != nil {
		found, ok := r.cache.Get(ctx, target)
		r.metrics.IncProbeCache(ok)
		if ok {
			return found
		}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.metrics.IncProbe("cancelled")
		r.logger.WarnContext(ctx, "asset probe abandoned while waiting for a slot",
			"url", target,
			"error", err,
		)
		return false
	}
	found, err := r.legacy.Probe(ctx, target)
	r.sem.Release(1)

	if err != nil {
		r.metrics.IncProbe("error")
		r.logger.WarnContext(ctx, "asset probe failed",
			"url", target,
			"error", err,
		)
		return false
	}

	if found {
		r.metrics.IncProbe("found")
	} else {
		r.metrics.IncProbe("missing")
		r.logger.DebugContext(ctx, "asset not found on legacy origin", "url", target)
	}
	if r.cache != nil {
		r.cache.Set(ctx, target, found)
	}
	return found
}

// Package tracer provides a small tracing abstraction over OpenTelemetry so
// the archive and CMS clients can emit spans without importing otel APIs
// directly. Use NewNoop in tests.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanLegacyFetch = "archive.legacy.fetch"
	SpanLegacyProbe = "archive.legacy.probe"
	SpanAssetScan   = "archive.assets.scan"
	SpanCMSQuery    = "cms.query"
	SpanCMSMutate   = "cms.mutate"
)

// Attribute keys.
const (
	AttrURL        = "http.url"
	AttrStatusCode = "http.status_code"
	AttrYear       = "archive.year"
	AttrCacheHit   = "cache.hit"
	AttrProbes     = "archive.probes"
	AttrFound      = "archive.found"
)

package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

type contextKeyMemo struct{}

// requestMemo holds raw query results for the lifetime of one request.
type requestMemo struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

// NewRequestCache returns a context carrying an empty query memo.
func NewRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyMemo{}, &requestMemo{entries: make(map[string]json.RawMessage)})
}

// WithRequestCache installs a fresh query memo for every request, so
// repeated identical queries during one render hit the CMS once.
func WithRequestCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewRequestCache(r.Context())))
	})
}

func memoGet(ctx context.Context, key string) (json.RawMessage, bool) {
	m, ok := ctx.Value(contextKeyMemo{}).(*requestMemo)
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	return raw, ok
}

// memoPut stores successful results only; failed queries are retried on the
// next call within the same request.
func memoPut(ctx context.Context, key string, raw json.RawMessage) {
	m, ok := ctx.Value(contextKeyMemo{}).(*requestMemo)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
}

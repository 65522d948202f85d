package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confsite/pkg/platform/middleware/requesttime"
	"confsite/pkg/requestcontext"
)

type registrarFunc func(r chi.Router)

func (f registrarFunc) Register(r chi.Router) { f(r) }

func newTestRouter() http.Handler {
	page := registrarFunc(func(r chi.Router) {
		r.Get("/archive/{year}", func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			w.Header().Set("X-Seen-Request-ID", requestcontext.RequestID(ctx))
			if requesttime.Now(ctx).IsZero() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(chi.URLParam(r, "year")))
		})
		r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	})
	api := registrarFunc(func(r chi.Router) {
		r.Post("/api/echo", func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			_, _ = w.Write(body)
		})
	})
	webhook := registrarFunc(func(r chi.Router) {
		r.Post("/api/hook", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Hook-Secret") != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	return NewRouter(Routes{
		Pages:    []Registrar{page},
		API:      []Registrar{api},
		Webhooks: []Registrar{webhook},
		Metrics:  metrics,
	},
		slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
}

func TestRouterMiddlewareStack(t *testing.T) {
	router := newTestRouter()

	t.Run("page routes see request id and request time", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/archive/2019", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2019", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, rec.Header().Get("X-Request-ID"), rec.Header().Get("X-Seen-Request-ID"))
	})

	t.Run("panics become 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, "# metrics", rec.Body.String())
	})
}

func TestRouterAPIGroup(t *testing.T) {
	router := newTestRouter()

	t.Run("rejects non-JSON content types", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("a=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("caps body size", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(strings.Repeat("a", 70*1024)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("accepts JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"ok":true}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"ok":true}`, rec.Body.String())
	})
}

func TestRouterWebhooksSkipAPIChecks(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/hook", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "webhook auth runs before any content-type check")
}

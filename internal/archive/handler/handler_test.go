package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"confsite/internal/archive/legacy"
	"confsite/internal/archive/metrics"
	"confsite/internal/archive/page"
	"confsite/internal/archive/resolver"
)

type staticYear string

func (y staticYear) CurrentYear(context.Context) string { return string(y) }

type HandlerSuite struct {
	suite.Suite
	origin *httptest.Server
	router chi.Router

	mu       sync.Mutex
	requests []string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.requests = nil
	s.origin = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		switch r.URL.Path {
		case "/2019/css/site.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte("body{color:red}"))
		case "/2019/notes":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("raw notes"))
		case "/2019/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><img src="/logo.png"></body></html>`))
		case "/2019/images/foo.jpg", "/2017/assets/app.js":
			w.WriteHeader(http.StatusOK)
		case "/2019/secret":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	client := legacy.New(s.origin.URL, legacy.WithHTTPClient(s.origin.Client()))
	pages := page.NewResolver(client, staticYear("2025"), logger, page.WithMetrics(m))
	assets := resolver.New(client, logger, resolver.WithMetrics(m))

	s.router = chi.NewRouter()
	New(client, pages, assets, logger, m).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.origin.Close()
}

func (s *HandlerSuite) upstream() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *HandlerSuite) do(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestProxyMissingParams() {
	for _, path := range []string{
		"/api/proxy",
		"/api/proxy?year=2019",
		"/api/proxy?path=%2Fcss%2Fsite.css",
		"/api/proxy?year=&path=%2Fx",
	} {
		rec := s.do(path)
		s.Equal(http.StatusBadRequest, rec.Code, path)
	}
	s.Empty(s.upstream(), "no upstream call for invalid input")
}

func (s *HandlerSuite) TestProxyStreamsUpstream() {
	rec := s.do("/api/proxy?year=2019&path=%2Fcss%2Fsite.css")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/css", rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Cache-Control"), "no-store")
	s.Equal("body{color:red}", rec.Body.String())
	s.Equal([]string{"GET /2019/css/site.css"}, s.upstream())
}

func (s *HandlerSuite) TestProxyDefaultsContentType() {
	rec := s.do("/api/proxy?year=2019&path=%2Fnotes")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/plain", rec.Header().Get("Content-Type"))
	s.Equal("raw notes", rec.Body.String())
}

func (s *HandlerSuite) TestProxyPropagatesUpstreamStatus() {
	rec := s.do("/api/proxy?year=2019&path=%2Fsecret")
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("Failed to fetch: 403", rec.Body.String())

	rec = s.do("/api/proxy?year=2019&path=%2Fmissing.css")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestProxyTransportFailure() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(failingProxy{}, nil, nil, logger, nil).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxy?year=2019&path=%2Fx", nil))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Error fetching content", rec.Body.String())
}

func (s *HandlerSuite) TestArchivePage() {
	s.Run("current year redirects home without fetching", func() {
		rec := s.do("/archive/2025")
		s.Equal(http.StatusTemporaryRedirect, rec.Code)
		s.Equal("/", rec.Header().Get("Location"))
		s.Empty(s.upstream())
	})

	s.Run("rewritten", func() {
		rec := s.do("/archive/2019")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		s.Equal("rewritten", rec.Header().Get("X-Archive-Mode"))
		s.Contains(rec.Body.String(), `src="/api/proxy?year=2019&amp;path=%2Flogo.png"`)
	})

	s.Run("iframe fallback", func() {
		rec := s.do("/archive/2013")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("iframe", rec.Header().Get("X-Archive-Mode"))
		s.Contains(rec.Body.String(), s.origin.URL+"/2013/")
	})
}

func (s *HandlerSuite) TestImageResolution() {
	rec := s.do("/archive/images/foo.jpg")

	s.Equal(http.StatusTemporaryRedirect, rec.Code)
	s.Equal(s.origin.URL+"/2019/images/foo.jpg", rec.Header().Get("Location"))
	s.Len(s.upstream(), 6)

	rec = s.do("/archive/images/missing.jpg")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestAssetResolution() {
	rec := s.do("/archive/assets/app.js", "Referer", "https://site.example.org/archive/2017/")
	s.Equal(http.StatusTemporaryRedirect, rec.Code)
	s.Equal(s.origin.URL+"/2017/assets/app.js", rec.Header().Get("Location"))

	before := len(s.upstream())
	rec = s.do("/archive/assets/app.js")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Len(s.upstream(), before, "no referer year, no probe")
}

type failingProxy struct{}

func (failingProxy) URL(year, path string) string { return "http://legacy.invalid/" + year + path }

func (failingProxy) Fetch(context.Context, string) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

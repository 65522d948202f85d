package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"confsite/internal/archive/legacy"
)

type ResolverSuite struct {
	suite.Suite
	origin *httptest.Server
	legacy *legacy.Client
	logger *slog.Logger

	mu     sync.Mutex
	probed []string
	exists map[string]bool
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.probed = nil
	s.exists = map[string]bool{
		"/2019/images/foo.jpg":   true,
		"/2016/images/foo.jpg":   true,
		"/2017/assets/css/a.css": true,
	}
	s.origin = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.probed = append(s.probed, r.Method+" "+r.URL.Path)
		ok := s.exists[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	s.legacy = legacy.New(s.origin.URL, legacy.WithHTTPClient(s.origin.Client()))
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ResolverSuite) TearDownTest() {
	s.origin.Close()
}

func (s *ResolverSuite) probes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.probed...)
}

func (s *ResolverSuite) TestResolveImageStopsAtNewestHit() {
	r := New(s.legacy, s.logger)

	target, ok := r.ResolveImage(context.Background(), "foo.jpg")

	s.Require().True(ok)
	s.Equal(s.origin.URL+"/2019/images/foo.jpg", target)
	s.Equal([]string{
		"HEAD /2024/images/foo.jpg",
		"HEAD /2023/images/foo.jpg",
		"HEAD /2022/images/foo.jpg",
		"HEAD /2021/images/foo.jpg",
		"HEAD /2020/images/foo.jpg",
		"HEAD /2019/images/foo.jpg",
	}, s.probes())
}

func (s *ResolverSuite) TestResolveImageMissingEverywhere() {
	r := New(s.legacy, s.logger)

	_, ok := r.ResolveImage(context.Background(), "/nope.png")

	s.False(ok)
	s.Len(s.probes(), len(ImageYears))
	s.Equal("HEAD /2010/images/nope.png", s.probes()[len(ImageYears)-1])
}

func (s *ResolverSuite) TestResolveAsset() {
	r := New(s.legacy, s.logger)

	s.Run("year from referer", func() {
		target, ok := r.ResolveAsset(context.Background(), "https://site.example.org/archive/2017/", "css/a.css")
		s.True(ok)
		s.Equal(s.origin.URL+"/2017/assets/css/a.css", target)
	})

	s.Run("single failed probe is not found", func() {
		before := len(s.probes())
		_, ok := r.ResolveAsset(context.Background(), "https://site.example.org/archive/2018/", "css/a.css")
		s.False(ok)
		s.Len(s.probes(), before+1)
	})

	s.Run("no year means no probe", func() {
		before := len(s.probes())
		for _, referer := range []string{"", "https://site.example.org/speakers", "/archive/latest/"} {
			_, ok := r.ResolveAsset(context.Background(), referer, "css/a.css")
			s.False(ok, referer)
		}
		s.Len(s.probes(), before)
	})
}

func (s *ResolverSuite) TestProbeCache() {
	cache, err := NewMemoryProbeCache(100, time.Minute)
	s.Require().NoError(err)
	r := New(s.legacy, s.logger, WithCache(cache))

	_, ok := r.ResolveImage(context.Background(), "foo.jpg")
	s.Require().True(ok)
	s.Len(s.probes(), 6)

	target, ok := r.ResolveImage(context.Background(), "foo.jpg")
	s.True(ok)
	s.Equal(s.origin.URL+"/2019/images/foo.jpg", target)
	s.Len(s.probes(), 6, "second scan answered from cache, misses included")
}

func (s *ResolverSuite) TestTransportErrorsAreNotCached() {
	cache, err := NewMemoryProbeCache(100, time.Minute)
	s.Require().NoError(err)
	prober := &flakyProber{Prober: s.legacy, fail: true}
	r := New(prober, s.logger, WithCache(cache), WithYears([]string{"2019"}))

	_, ok := r.ResolveImage(context.Background(), "foo.jpg")
	s.False(ok)

	prober.fail = false
	_, ok = r.ResolveImage(context.Background(), "foo.jpg")
	s.True(ok)
}

func (s *ResolverSuite) TestCancelledWhileWaitingForSlot() {
	blocker := &blockingProber{Prober: s.legacy, release: make(chan struct{}), started: make(chan struct{})}
	r := New(blocker, s.logger, WithConcurrency(1), WithYears([]string{"2019"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ResolveImage(context.Background(), "foo.jpg")
	}()
	<-blocker.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := r.ResolveImage(ctx, "bar.jpg")
	s.False(ok, "a request that cannot get a probe slot is not found")

	close(blocker.release)
	<-done
}

func (s *ResolverSuite) TestYearFromReferer() {
	tests := []struct {
		referer string
		year    string
		ok      bool
	}{
		{"https://site.example.org/archive/2019/", "2019", true},
		{"https://site.example.org/archive/2019", "2019", true},
		{"/archive/2012/program.html", "2012", true},
		{"https://site.example.org/archive/", "", false},
		{"https://site.example.org/2019/", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		year, ok := YearFromReferer(tt.referer)
		s.Equal(tt.ok, ok, tt.referer)
		s.Equal(tt.year, year, tt.referer)
	}
}

type flakyProber struct {
	Prober
	fail bool
}

func (p *flakyProber) Probe(ctx context.Context, url string) (bool, error) {
	if p.fail {
		return false, errors.New("connection reset")
	}
	return p.Prober.Probe(ctx, url)
}

type blockingProber struct {
	Prober
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (p *blockingProber) Probe(ctx context.Context, url string) (bool, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return p.Prober.Probe(ctx, url)
}

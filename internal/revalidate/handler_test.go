package revalidate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"confsite/pkg/platform/middleware/requesttime"
)

type recordingCache struct {
	paths [][]string
	all   int
}

func (c *recordingCache) Invalidate(paths ...string) { c.paths = append(c.paths, paths) }
func (c *recordingCache) InvalidateAll()             { c.all++ }

type RevalidateSuite struct {
	suite.Suite
	cache  *recordingCache
	router chi.Router
	now    time.Time
}

func TestRevalidateSuite(t *testing.T) {
	suite.Run(t, new(RevalidateSuite))
}

func (s *RevalidateSuite) SetupTest() {
	s.cache = &recordingCache{}
	s.now = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	s.router = chi.NewRouter()
	New(s.cache, "hook-secret", slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RevalidateSuite) post(secretValue, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/revalidate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secretValue != "" {
		req.Header.Set("x-webhook-secret", secretValue)
	}
	req = req.WithContext(requesttime.WithTime(context.Background(), s.now))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RevalidateSuite) TestWrongSecretInvalidatesNothing() {
	for _, provided := range []string{"", "wrong", "hook-secret "} {
		rec := s.post(provided, `{"_type":"siteSettings"}`)
		s.Equal(http.StatusUnauthorized, rec.Code, "%q", provided)
	}
	s.Empty(s.cache.paths)
	s.Zero(s.cache.all)
}

func (s *RevalidateSuite) TestSecretIsCheckedBeforeContentType() {
	send := func(secretValue string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/revalidate", strings.NewReader("_type=homePage"))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("x-webhook-secret", secretValue)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	s.Equal(http.StatusUnauthorized, send("wrong").Code)
	s.Equal(http.StatusUnsupportedMediaType, send("hook-secret").Code)
	s.Empty(s.cache.paths)
	s.Zero(s.cache.all)
}

func (s *RevalidateSuite) TestUnsetSecretRejectsEverything() {
	cache := &recordingCache{}
	router := chi.NewRouter()
	New(cache, "", slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	req := httptest.NewRequest(http.MethodPost, "/api/revalidate", strings.NewReader(`{"_type":"homePage"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Empty(cache.paths)
}

func (s *RevalidateSuite) TestArchiveYear() {
	rec := s.post("hook-secret", `{"_type":"archive","_id":"archive-2019","slug":"2019","year":"2019"}`)

	s.Require().Equal(http.StatusOK, rec.Code)
	var body Response
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.True(body.Revalidated)
	s.Equal([]string{"/archive", "/archive/2019"}, body.Paths)
	s.Equal(s.now.UnixMilli(), body.Now)
	s.Equal([][]string{{"/archive", "/archive/2019"}}, s.cache.paths)
}

func (s *RevalidateSuite) TestSiteSettingsDropsEverything() {
	rec := s.post("hook-secret", `{"_type":"siteSettings","_id":"siteSettings"}`)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.cache.all)
	s.Empty(s.cache.paths)
}

func (s *RevalidateSuite) TestRegistrationTouchesNothing() {
	rec := s.post("hook-secret", `{"_type":"registration","_id":"registration.x"}`)

	s.Require().Equal(http.StatusOK, rec.Code)
	var body Response
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Empty(body.Paths)
	s.NotNil(body.Paths)
	s.Empty(s.cache.paths)
	s.Zero(s.cache.all)
}

func (s *RevalidateSuite) TestOversizedFieldsAreRejected() {
	rec := s.post("hook-secret", `{"_type":"archive","year":"`+strings.Repeat("9", 40)+`"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Empty(s.cache.paths)
}

func TestPathsFor(t *testing.T) {
	cases := []struct {
		docType, year string
		paths         []string
		all           bool
	}{
		{"homePage", "", []string{"/"}, false},
		{"siteSettings", "", []string{"/"}, true},
		{"sponsor", "", []string{"/", "/sponsors"}, false},
		{"speaker", "", []string{"/speakers"}, false},
		{"teamMember", "", []string{"/team"}, false},
		{"submissionInfo", "", []string{"/submissions"}, false},
		{"archive", "", []string{"/archive"}, false},
		{"archive", "2018", []string{"/archive", "/archive/2018"}, false},
		{"registration", "", []string{}, false},
		{"somethingNew", "", []string{"/"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.docType+tc.year, func(t *testing.T) {
			paths, all := PathsFor(tc.docType, tc.year)
			if all != tc.all {
				t.Fatalf("all = %v, want %v", all, tc.all)
			}
			if strings.Join(paths, ",") != strings.Join(tc.paths, ",") {
				t.Fatalf("paths = %v, want %v", paths, tc.paths)
			}
		})
	}
}

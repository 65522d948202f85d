package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confsite/internal/archive/legacy"
	"confsite/internal/archive/metrics"
	"confsite/internal/archive/page"
	request "confsite/pkg/platform/middleware/request"
	"confsite/pkg/platform/validation"
)

// Proxy fetches legacy resources.
type Proxy interface {
	URL(year, path string) string
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// PageResolver resolves archived year pages.
type PageResolver interface {
	Resolve(ctx context.Context, year string) (page.Result, error)
}

// AssetResolver locates orphaned legacy assets.
type AssetResolver interface {
	ResolveAsset(ctx context.Context, referer, path string) (string, bool)
	ResolveImage(ctx context.Context, path string) (string, bool)
}

// Handler serves the legacy archive. These routes answer with plain text,
// HTML and redirects rather than the JSON error envelope.
type Handler struct {
	proxy   Proxy
	pages   PageResolver
	assets  AssetResolver
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(proxy Proxy, pages PageResolver, assets AssetResolver, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		proxy:   proxy,
		pages:   pages,
		assets:  assets,
		logger:  logger,
		metrics: m,
	}
}

// Register registers the archive routes with the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/proxy", h.HandleProxy)
	r.Get("/archive/{year}", h.HandleArchivePage)
	r.Get("/archive/assets/*", h.HandleAsset)
	r.Get("/archive/images/*", h.HandleImage)
}

// HandleProxy streams {legacyOrigin}/{year}{path} back unchanged.
func (h *Handler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	year := r.URL.Query().Get("year")
	path := r.URL.Query().Get("path")

	if year == "" || path == "" {
		h.metrics.IncProxyRequest("bad_request")
		writeText(w, http.StatusBadRequest, "Missing year or path parameter")
		return
	}
	if err := validation.CheckStringLength("year", year, validation.MaxYearLength); err != nil {
		h.metrics.IncProxyRequest("bad_request")
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	target := h.proxy.URL(year, path)
	resp, err := h.proxy.Fetch(ctx, target)
	if err != nil {
		var statusErr *legacy.StatusError
		if errors.As(err, &statusErr) {
			h.metrics.IncProxyRequest("upstream_status")
			h.logger.WarnContext(ctx, "legacy origin returned an error status",
				"url", target,
				"status", statusErr.StatusCode,
				"request_id", requestID,
			)
			writeText(w, statusErr.StatusCode, fmt.Sprintf("Failed to fetch: %d", statusErr.StatusCode))
			return
		}
		h.metrics.IncProxyRequest("transport_error")
		h.logger.ErrorContext(ctx, "legacy fetch failed",
			"url", target,
			"error", err,
			"request_id", requestID,
		)
		writeText(w, http.StatusInternalServerError, "Error fetching content")
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	h.metrics.IncProxyRequest("ok")

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.WarnContext(ctx, "legacy stream interrupted",
			"url", target,
			"error", err,
			"request_id", requestID,
		)
	}
}

// HandleArchivePage renders an archived year.
func (h *Handler) HandleArchivePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year := chi.URLParam(r, "year")
	if year == "" || len(year) > validation.MaxYearLength {
		http.NotFound(w, r)
		return
	}

	res, err := h.pages.Resolve(ctx, year)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to render archive page",
			"year", year,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		writeText(w, http.StatusInternalServerError, "Error rendering archive")
		return
	}

	if res.Mode == page.ModeRedirect {
		http.Redirect(w, r, res.RedirectTo, http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Archive-Mode", string(res.Mode))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.HTML)
}

// HandleAsset redirects an orphaned /archive/assets/* request to the year
// named by the referring archive page.
func (h *Handler) HandleAsset(w http.ResponseWriter, r *http.Request) {
	target, ok := h.assets.ResolveAsset(r.Context(), r.Referer(), chi.URLParam(r, "*"))
	h.redirectOrNotFound(w, r, target, ok)
}

// HandleImage redirects an orphaned /archive/images/* request to the newest
// archive year that has the image.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	target, ok := h.assets.ResolveImage(r.Context(), chi.URLParam(r, "*"))
	h.redirectOrNotFound(w, r, target, ok)
}

func (h *Handler) redirectOrNotFound(w http.ResponseWriter, r *http.Request, target string, ok bool) {
	if !ok {
		writeText(w, http.StatusNotFound, "Not found")
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

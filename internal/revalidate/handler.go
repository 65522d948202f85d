// Package revalidate serves the CMS webhook that drops cached pages after
// content changes.
package revalidate

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confsite/pkg/platform/httputil"
	request "confsite/pkg/platform/middleware/request"
	"confsite/pkg/platform/middleware/requesttime"
	"confsite/pkg/platform/middleware/secret"
	"confsite/pkg/platform/validation"
)

// Invalidator drops cached renderings.
type Invalidator interface {
	Invalidate(paths ...string)
	InvalidateAll()
}

// Request is the webhook body sent by the CMS.
type Request struct {
	Type string `json:"_type"`
	Slug string `json:"slug"`
	ID   string `json:"_id"`
	Year string `json:"year"`
}

func (r *Request) Validate() error {
	if err := validation.CheckStringLength("_type", r.Type, validation.MaxSlugLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("slug", r.Slug, validation.MaxSlugLength); err != nil {
		return err
	}
	if err := validation.CheckStringLength("_id", r.ID, validation.MaxSlugLength); err != nil {
		return err
	}
	return validation.CheckStringLength("year", r.Year, validation.MaxYearLength)
}

// Response reports which paths were dropped.
type Response struct {
	Revalidated bool     `json:"revalidated"`
	Paths       []string `json:"paths"`
	Now         int64    `json:"now"`
}

type Handler struct {
	cache  Invalidator
	secret string
	logger *slog.Logger
}

// New returns a handler that accepts webhooks carrying webhookSecret. An
// empty secret rejects every call.
func New(cache Invalidator, webhookSecret string, logger *slog.Logger) *Handler {
	return &Handler{cache: cache, secret: webhookSecret, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.With(
		secret.Require(secret.HeaderWebhookSecret, h.secret, h.logger),
		request.ContentTypeJSON,
		request.BodyLimit(validation.MaxBodySize),
	).Post("/api/revalidate", h.HandleRevalidate)
}

// HandleRevalidate expects the secret check to have already passed.
func (h *Handler) HandleRevalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	paths, all := PathsFor(req.Type, req.Year)
	if all {
		h.cache.InvalidateAll()
	} else if len(paths) > 0 {
		h.cache.Invalidate(paths...)
	}

	h.logger.InfoContext(ctx, "content revalidated",
		"type", req.Type,
		"document_id", req.ID,
		"paths", paths,
		"all", all,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, Response{
		Revalidated: true,
		Paths:       paths,
		Now:         requesttime.Now(ctx).UnixMilli(),
	})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confsite/internal/registration/models"
	dErrors "confsite/pkg/domain-errors"
	"confsite/pkg/platform/httputil"
	request "confsite/pkg/platform/middleware/request"
)

// Service defines the registration pipeline used by the handler.
type Service interface {
	Register(ctx context.Context, sub *models.Submission) (*models.Submission, error)
}

// Handler serves the registration form endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.HandleRegister)
}

// HandleRegister accepts a registration form submission.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Register(ctx, req.ToSubmission())
	if err != nil {
		level := slog.LevelWarn
		if dErrors.HasCode(err, dErrors.CodeRegistrationFailed) {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "registration rejected",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration received",
		"registration_id", created.ID,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		ID:      created.ID,
		Message: "registration received",
	})
}

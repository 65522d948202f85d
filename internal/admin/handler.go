package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confsite/pkg/platform/httputil"
	request "confsite/pkg/platform/middleware/request"
	"confsite/pkg/platform/validation"
)

// Handler serves the admin token check used by the admin UI to unlock itself.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// New creates a new admin handler
func New(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register registers admin routes with the router
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify-token", h.HandleVerifyToken)
}

// VerifyTokenRequest carries the token typed into the admin UI.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

func (r *VerifyTokenRequest) Validate() error {
	return validation.CheckStringLength("token", r.Token, validation.MaxTokenLength)
}

// VerifyTokenResponse is the check outcome. A wrong token is not an error.
type VerifyTokenResponse struct {
	Success bool `json:"success"`
}

// HandleVerifyToken answers 200 with the outcome, or 500 when the server has
// no admin token.
func (h *Handler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	success, err := h.service.Verify(req.Token)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin token check unavailable",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	if !success {
		h.logger.WarnContext(ctx, "admin token rejected",
			"request_id", requestID,
		)
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyTokenResponse{Success: success})
}

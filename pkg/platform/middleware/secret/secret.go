// Package secret guards endpoints behind a shared secret carried in a header.
package secret

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "confsite/pkg/platform/middleware/request"
)

// HeaderWebhookSecret is the header the CMS sends with revalidation webhooks.
const HeaderWebhookSecret = "X-Webhook-Secret"

// Matches reports whether provided equals expected in constant time. An empty
// expected secret never matches, so an unconfigured secret locks the route.
func Matches(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// Require rejects requests whose header does not carry the expected secret
// with 401 before the next handler runs.
func Require(header, expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Matches(r.Header.Get(header), expected) {
				ctx := r.Context()
				logger.WarnContext(ctx, "shared secret mismatch",
					"header", header,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"invalid secret"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

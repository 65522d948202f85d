package admin

import (
	dErrors "confsite/pkg/domain-errors"
	"confsite/pkg/platform/middleware/secret"
	"confsite/pkg/secrets"
)

// Service checks tokens presented by the admin UI against the configured
// shared token. The configured value may be the token itself or its bcrypt
// hash (see cmd/tokengen).
type Service struct {
	token string
}

// NewService creates a service for the shared admin token. An empty token
// leaves the service unconfigured.
func NewService(token string) *Service {
	return &Service{token: token}
}

// Verify reports whether token is the admin token. It fails with
// CodeInternal when no admin token is configured or the configured hash is
// unusable.
func (s *Service) Verify(token string) (bool, error) {
	if s.token == "" {
		return false, dErrors.New(dErrors.CodeInternal, "admin token not configured")
	}
	if !secrets.IsHash(s.token) {
		return secret.Matches(token, s.token), nil
	}
	if token == "" {
		return false, nil
	}
	err := secrets.Verify(token, s.token)
	switch {
	case err == nil:
		return true, nil
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		return false, nil
	default:
		return false, err
	}
}

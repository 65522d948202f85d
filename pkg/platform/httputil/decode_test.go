package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "confsite/pkg/domain-errors"
)

type tokenRequest struct {
	Token string `json:"token"`
}

type preparedRequest struct {
	Name       string `json:"name"`
	normalized bool
}

func (r *preparedRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.normalized = true
}

func (r *preparedRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type fieldRequest struct{}

func (r *fieldRequest) Validate() error {
	return dErrors.NewFields("invalid", map[string]string{"email": "email is required"})
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/verify-token", strings.NewReader(`{"token":"abc"}`))
		rec := httptest.NewRecorder()

		req, ok := DecodeJSON[tokenRequest](rec, r, discard, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "abc", req.Token)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/verify-token", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[tokenRequest](rec, r, discard, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeBody(t, rec).Error)
	})

	t.Run("oversized body is a 413", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"token":"`+strings.Repeat("a", 100)+`"}`))
		rec := httptest.NewRecorder()
		r.Body = http.MaxBytesReader(rec, r.Body, 16)

		_, ok := DecodeJSON[tokenRequest](rec, r, discard, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  Ada  "}`))
		rec := httptest.NewRecorder()

		req, ok := DecodeAndPrepare[preparedRequest](rec, r, discard, r.Context(), "req-1")
		require.True(t, ok)
		assert.True(t, req.normalized)
		assert.Equal(t, "Ada", req.Name)
	})

	t.Run("plain validation error becomes validation_error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[preparedRequest](rec, r, discard, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "validation_error", body.Error)
		assert.Equal(t, "name is required", body.Description)
	})

	t.Run("field errors reach the envelope", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[fieldRequest](rec, r, discard, r.Context(), "req-1")
		assert.False(t, ok)
		assert.Equal(t, "email is required", decodeBody(t, rec).Fields["email"])
	})
}

func TestWriteErrorRegistrationCodes(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		wire   string
	}{
		{dErrors.CodeEmailAlreadyRegistered, http.StatusConflict, "EMAIL_ALREADY_REGISTERED"},
		{dErrors.CodeRegistrationFailed, http.StatusInternalServerError, "REGISTRATION_FAILED"},
		{dErrors.CodeDuplicatePreference, http.StatusBadRequest, "WORKSHOP_PREFERENCES_NOT_UNIQUE"},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, dErrors.New(tc.code, "msg"))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.wire, decodeBody(t, rec).Error)
		})
	}

	t.Run("unknown errors are internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal_error", decodeBody(t, rec).Error)
	})
}

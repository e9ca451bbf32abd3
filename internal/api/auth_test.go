package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/ratelimit"
)

func TestBearerTokenRequired_RejectsMissingHeader(t *testing.T) {
	s := &Server{BearerToken: "secret"}
	handler := s.bearerTokenRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/worklist", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenRequired_RejectsWrongToken(t *testing.T) {
	s := &Server{BearerToken: "secret"}
	handler := s.bearerTokenRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/worklist", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenRequired_AllowsCorrectTokenAndAttachesCallerID(t *testing.T) {
	s := &Server{BearerToken: "secret"}
	var gotCallerID string
	handler := s.bearerTokenRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCallerID = ratelimit.CallerIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/worklist", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", gotCallerID)
}

func TestBearerTokenRequired_RejectsTokenEqualToHeaderWithNoBearerPrefix(t *testing.T) {
	// If Authorization has no "Bearer " prefix, TrimPrefix is a no-op, so
	// token == auth; this must be rejected even though the bare value
	// equals the configured token.
	s := &Server{BearerToken: "secret"}
	handler := s.bearerTokenRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/worklist", nil)
	req.Header.Set("Authorization", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package apimetrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath_CollapsesIDSegments(t *testing.T) {
	assert.Equal(t, "/api/v1/worklist/{id}", normalizePath("/api/v1/worklist/42"))
	assert.Equal(t, "/api/v1/articles/{id}/issues", normalizePath("/api/v1/articles/17/issues"))
	assert.Equal(t, "/api/v1/rulesets/{id}/publish", normalizePath("/api/v1/rulesets/3/publish"))
}

func TestNormalizePath_UnmatchedPathPassesThrough(t *testing.T) {
	assert.Equal(t, "/healthz", normalizePath("/healthz"))
}

func TestMiddleware_RecordsNormalizedEndpointPerRequest(t *testing.T) {
	counters := New()
	handler := Middleware(counters)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/api/v1/worklist/1", "/api/v1/worklist/2", "/api/v1/worklist/1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	snapshot := counters.Snapshot()
	assert.Equal(t, 3, snapshot["GET /api/v1/worklist/{id}"])
}

func TestCounters_ServeHTTP_EncodesSnapshotAsJSON(t *testing.T) {
	counters := New()
	counters.record("GET /api/v1/worklist/{id}")

	req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
	rec := httptest.NewRecorder()
	counters.ServeHTTP(rec, req)

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body["GET /api/v1/worklist/{id}"])
}

package docstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChanged_SendsSinceParamAndParsesDocuments(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Document{
			{ID: "doc-1", Title: "Hello", Author: "Ada", Link: "https://x/1"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "tok-123")
	docs, err := client.ListChanged(t.Context(), since)
	require.NoError(t, err)

	assert.Equal(t, "/documents?since=2026-01-02T03:04:05Z", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
}

func TestListChanged_ZeroSinceOmitsQueryParam(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		_ = json.NewEncoder(w).Encode([]Document{})
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	_, err := client.ListChanged(t.Context(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "/documents", gotPath)
}

func TestGet_FetchesSingleDocumentByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/doc-42", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Document{ID: "doc-42", Title: "Found"})
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	doc, err := client.Get(t.Context(), "doc-42")
	require.NoError(t, err)
	assert.Equal(t, "doc-42", doc.ID)
	assert.Equal(t, "Found", doc.Title)
}

func TestGet_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	_, err := client.Get(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx other than 429 must not be retried")
}

func TestListChanged_InvalidJSONReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	_, err := client.ListChanged(t.Context(), time.Time{})
	assert.Error(t, err)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathID_ParsesMuxVar(t *testing.T) {
	req := httptest.NewRequest("GET", "/worklist/42", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})

	id, err := pathID(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestPathID_RejectsNonNumeric(t *testing.T) {
	req := httptest.NewRequest("GET", "/worklist/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})

	_, err := pathID(req)
	assert.Error(t, err)
}

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 201, map[string]string{"ok": "yes"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "yes", body["ok"])
}

func TestWriteError_EncodesErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 400, errors.New("bad request"))

	assert.Equal(t, 400, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad request", body["error"])
}

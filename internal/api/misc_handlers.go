package api

import "net/http"

// handleListCredentials returns value-free credential metadata (§6): never
// the secret values themselves, only what's configured and when it was
// last fetched.
func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	infos, err := s.Vault.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// HealthResponse mirrors server/healthcheck.go's shape: a simple status
// plus whatever degraded-state detail operators need at a glance.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

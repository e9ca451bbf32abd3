package api

import (
	"net/http"
	"strings"

	"github.com/fieldnotes/articlepipeline/internal/ratelimit"
)

// bearerTokenRequired generalizes server/api.go's
// MattermostAuthorizationRequired (which checks a Mattermost-User-ID
// header set by the host server) to a standalone bearer-token check, since
// this service has no host session of its own. The token itself is treated
// as the caller ID for rate-limiting purposes.
func (s *Server) bearerTokenRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token == auth || token != s.BearerToken {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}
		ctx := ratelimit.WithCallerID(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Package apimetrics counts requests by normalized endpoint, adapted from
// server/metrics.go's apiRequestCounts map: same path-normalization idiom
// (collapse path parameters to {id} so /articles/17 and /articles/42 share
// a counter), retargeted at this service's own route table.
package apimetrics

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sync"
)

var pathNormalizers = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{pattern: regexp.MustCompile(`^/api/v1/worklist/[^/]+$`), replacement: "/api/v1/worklist/{id}"},
	{pattern: regexp.MustCompile(`^/api/v1/worklist/[^/]+/notes$`), replacement: "/api/v1/worklist/{id}/notes"},
	{pattern: regexp.MustCompile(`^/api/v1/worklist/[^/]+/reset$`), replacement: "/api/v1/worklist/{id}/reset"},
	{pattern: regexp.MustCompile(`^/api/v1/worklist/[^/]+/parse$`), replacement: "/api/v1/worklist/{id}/parse"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+$`), replacement: "/api/v1/articles/{id}"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/confirm-parsing$`), replacement: "/api/v1/articles/{id}/confirm-parsing"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/optimize$`), replacement: "/api/v1/articles/{id}/optimize"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/issues$`), replacement: "/api/v1/articles/{id}/issues"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/analyze$`), replacement: "/api/v1/articles/{id}/analyze"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/decisions$`), replacement: "/api/v1/articles/{id}/decisions"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/proofreading/finalize$`), replacement: "/api/v1/articles/{id}/proofreading/finalize"},
	{pattern: regexp.MustCompile(`^/api/v1/articles/[^/]+/publish$`), replacement: "/api/v1/articles/{id}/publish"},
	{pattern: regexp.MustCompile(`^/api/v1/publish-tasks/[^/]+$`), replacement: "/api/v1/publish-tasks/{id}"},
	{pattern: regexp.MustCompile(`^/api/v1/publish-tasks/[^/]+/retry$`), replacement: "/api/v1/publish-tasks/{id}/retry"},
	{pattern: regexp.MustCompile(`^/api/v1/publish-tasks/[^/]+/cancel$`), replacement: "/api/v1/publish-tasks/{id}/cancel"},
	{pattern: regexp.MustCompile(`^/api/v1/rulesets/[^/]+$`), replacement: "/api/v1/rulesets/{id}"},
	{pattern: regexp.MustCompile(`^/api/v1/rulesets/[^/]+/publish$`), replacement: "/api/v1/rulesets/{id}/publish"},
	{pattern: regexp.MustCompile(`^/api/v1/rulesets/[^/]+/archive$`), replacement: "/api/v1/rulesets/{id}/archive"},
	{pattern: regexp.MustCompile(`^/api/v1/credentials/[^/]+$`), replacement: "/api/v1/credentials/{key}"},
}

// Counters tracks request totals by normalized "METHOD /path" endpoint key.
type Counters struct {
	mu     sync.RWMutex
	counts map[string]int
}

func New() *Counters {
	return &Counters{counts: make(map[string]int)}
}

func (c *Counters) record(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[endpoint]++
}

func (c *Counters) Snapshot() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		snapshot[k] = v
	}
	return snapshot
}

func endpointKey(r *http.Request) string {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	return r.Method + " " + normalizePath(path)
}

func normalizePath(path string) string {
	for _, n := range pathNormalizers {
		if n.pattern.MatchString(path) {
			return n.pattern.ReplaceAllLiteralString(path, n.replacement)
		}
	}
	return path
}

// Middleware records every request that reaches the router.
func Middleware(c *Counters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.record(endpointKey(r))
			next.ServeHTTP(w, r)
		})
	}
}

// ServeHTTP exposes the counters as a JSON endpoint, mounted at
// /api/v1/admin/metrics.
func (c *Counters) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c.Snapshot())
}

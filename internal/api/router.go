// Package api implements the REST surface named in SPEC_FULL.md §6:
// worklist item lifecycle, article review/editing, proofreading issue
// decisions, ruleset lifecycle, credential listing, and publish triggers.
// Router construction follows server/api.go's initRouter: a gorilla/mux
// router whose /api/v1 subrouter requires the bearer token on every route,
// with an /admin subrouter nested inside it (same token, no extra check).
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fieldnotes/articlepipeline/internal/apimetrics"
	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/optimize"
	"github.com/fieldnotes/articlepipeline/internal/orchestrator"
	"github.com/fieldnotes/articlepipeline/internal/proofreading"
	"github.com/fieldnotes/articlepipeline/internal/publish"
	"github.com/fieldnotes/articlepipeline/internal/ratelimit"
	"github.com/fieldnotes/articlepipeline/internal/store"
	"github.com/fieldnotes/articlepipeline/internal/vault"
)

// Server bundles every dependency the HTTP handlers need.
type Server struct {
	Store                      *store.Store
	Orchestrator               *orchestrator.Orchestrator
	Vault                      *vault.Vault
	Publishers                 map[string]publish.Provider
	Analyzer                   *proofreading.Analyzer
	Optimizer                  *optimize.Engine
	LLMClient                  llm.Client
	BearerToken                string
	Metrics                    *apimetrics.Counters
	RateLimiter                *ratelimit.Limiter
	CarryForwardToleranceChars int
	DefaultProvider            string
}

// NewRouter builds the full route table.
func (s *Server) NewRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(apimetrics.Middleware(s.Metrics))

	authed := router.PathPrefix("/api/v1").Subrouter()
	authed.Use(s.bearerTokenRequired)
	authed.Use(ratelimit.Middleware(s.RateLimiter))

	authed.HandleFunc("/worklist", s.handleListWorklist).Methods(http.MethodGet)
	authed.HandleFunc("/worklist/{id}", s.handleGetWorklistItem).Methods(http.MethodGet)
	authed.HandleFunc("/worklist/{id}/notes", s.handleAddNote).Methods(http.MethodPost)
	authed.HandleFunc("/worklist/{id}/reset", s.handleResetWorklistItem).Methods(http.MethodPost)
	authed.HandleFunc("/worklist/{id}/parse", s.handleParseWorklistItem).Methods(http.MethodPost)

	authed.HandleFunc("/articles/{id}", s.handleGetArticle).Methods(http.MethodGet)
	authed.HandleFunc("/articles/{id}/confirm-parsing", s.handleConfirmParsing).Methods(http.MethodPost)
	authed.HandleFunc("/articles/{id}/optimize", s.handleOptimizeArticle).Methods(http.MethodPost)
	authed.HandleFunc("/articles/{id}/issues", s.handleListIssues).Methods(http.MethodGet)
	authed.HandleFunc("/articles/{id}/analyze", s.handleAnalyzeArticle).Methods(http.MethodPost)
	authed.HandleFunc("/articles/{id}/decisions", s.handleRecordDecision).Methods(http.MethodPost)
	authed.HandleFunc("/articles/{id}/proofreading/finalize", s.handleFinalizeProofreading).Methods(http.MethodPost)
	authed.HandleFunc("/articles/{id}/publish", s.handlePublishArticle).Methods(http.MethodPost)

	authed.HandleFunc("/rulesets", s.handleListRuleSets).Methods(http.MethodGet)
	authed.HandleFunc("/rulesets", s.handleCreateRuleSet).Methods(http.MethodPost)
	authed.HandleFunc("/rulesets/{id}/publish", s.handlePublishRuleSet).Methods(http.MethodPost)
	authed.HandleFunc("/rulesets/{id}/archive", s.handleArchiveRuleSet).Methods(http.MethodPost)

	authed.HandleFunc("/publish-tasks/{id}", s.handleGetPublishTask).Methods(http.MethodGet)
	authed.HandleFunc("/publish-tasks/{id}/retry", s.handleRetryPublishTask).Methods(http.MethodPost)
	authed.HandleFunc("/publish-tasks/{id}/cancel", s.handleCancelPublishTask).Methods(http.MethodPost)

	authed.HandleFunc("/credentials", s.handleListCredentials).Methods(http.MethodGet)

	admin := authed.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	admin.Handle("/metrics", s.Metrics).Methods(http.MethodGet)

	return router
}

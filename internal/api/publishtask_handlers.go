package api

import (
	"net/http"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

func (s *Server) handleGetPublishTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.Store.PublishTasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleRetryPublishTask re-runs a failed publish attempt against the same
// provider that ran it, recorded as a new PublishTask row (attempt N+1)
// rather than mutating the failed one, preserving the full attempt history.
// The number of attempts is not limited: any failed task can be retried,
// whatever its Attempt count.
func (s *Server) handleRetryPublishTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	prior, err := s.Store.PublishTasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if prior.Status != models.PublishTaskFailed {
		writeError(w, http.StatusConflict, errPublishTaskNotRetryable)
		return
	}

	article, err := s.Store.Articles.Get(r.Context(), prior.ArticleID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	provider, ok := s.Publishers[string(prior.Provider)]
	if !ok {
		writeError(w, http.StatusInternalServerError, errNoProviderConfigured)
		return
	}

	credentials, err := s.credentialsForPublish(r.Context())
	if err != nil {
		writeError(w, http.StatusFailedDependency, err)
		return
	}

	next := &models.PublishTask{ArticleID: prior.ArticleID, Provider: prior.Provider, Status: models.PublishTaskQueued, Attempt: prior.Attempt + 1}
	if err := s.Store.PublishTasks.Insert(r.Context(), next); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	outcome, err := s.runPublishTask(r.Context(), next, article, provider, credentials)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleCancelPublishTask stops a queued or running task; it is a no-op
// against a task that already reached a terminal state.
func (s *Server) handleCancelPublishTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Store.PublishTasks.MarkCancelled(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/publish"
)

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	article, err := s.Store.Articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

type confirmParsingRequest struct {
	Operator string `json:"operator"`
}

// handleConfirmParsing is the parsing_review gate: an operator confirms a
// parsed Article is correct, which is the only thing that advances its
// WorklistItem out of parsing_review (§4.1, §4.5.1).
func (s *Server) handleConfirmParsing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req confirmParsingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.Store.Articles.ConfirmParsing(r.Context(), id, req.Operator); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	article, err := s.Store.Articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if article.WorklistItemID != nil {
		if err := s.Orchestrator.Transition(r.Context(), *article.WorklistItemID, models.StatusProofreading); err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOptimizeArticle runs C3's unified optimization call for the
// article, synchronously, since the optimization call itself already
// collapses concurrent duplicate requests (internal/optimize's
// inflightGroup).
func (s *Server) handleOptimizeArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	article, err := s.Store.Articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	out, err := s.Optimizer.Optimize(r.Context(), id, article.TitleMain, article.BodyText)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePublishArticle dispatches to the configured provider, synchronously,
// since publishing is operator-initiated and the caller is expected to
// watch the response (or poll PublishTasks for a long-running browser
// automation run).
func (s *Server) handlePublishArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	article, err := s.Store.Articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if article.Status != models.ArticleStatusReadyToPublish {
		writeError(w, http.StatusConflict, errStatusForbidsPublish(article.Status))
		return
	}

	provider, ok := s.Publishers[s.DefaultProvider]
	if !ok {
		writeError(w, http.StatusInternalServerError, errNoProviderConfigured)
		return
	}

	credentials, err := s.credentialsForPublish(r.Context())
	if err != nil {
		writeError(w, http.StatusFailedDependency, err)
		return
	}

	task := &models.PublishTask{ArticleID: id, Provider: provider.Name(), Status: models.PublishTaskQueued, Attempt: 1}
	if err := s.Store.PublishTasks.Insert(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	outcome, err := s.runPublishTask(r.Context(), task, article, provider, credentials)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// runPublishTask drives a single queued PublishTask through a provider,
// recording start/success/failure on the task row as it goes. Shared by
// handlePublishArticle (attempt 1) and handleRetryPublishTask (attempt N).
func (s *Server) runPublishTask(ctx context.Context, task *models.PublishTask, article *models.Article, provider publish.Provider, credentials map[string]string) (*models.PublishOutcome, error) {
	_ = s.Store.PublishTasks.MarkRunning(ctx, task.ID)

	outcome, err := provider.Publish(ctx, article, credentials, models.PublishOptions{Provider: provider.Name()}, nil)
	if err != nil {
		_ = s.Store.PublishTasks.MarkFailed(ctx, task.ID, err.Error())
		return nil, err
	}
	_ = s.Store.PublishTasks.MarkSucceeded(ctx, task.ID, outcome)
	_ = s.Store.Articles.UpdateStatus(ctx, task.ArticleID, models.ArticleStatusPublished)
	return &outcome, nil
}

func (s *Server) credentialsForPublish(ctx context.Context) (map[string]string, error) {
	username, err := s.Vault.Get(ctx, "cms_username")
	if err != nil {
		return nil, err
	}
	password, err := s.Vault.Get(ctx, "cms_password")
	if err != nil {
		return nil, err
	}
	return map[string]string{"username": username, "password": password}, nil
}


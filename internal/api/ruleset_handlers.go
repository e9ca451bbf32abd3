package api

import (
	"encoding/json"
	"net/http"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/proofreading"
)

func (s *Server) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	rulesets, err := s.Store.RuleSets.ListRuleSets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesets)
}

type createRuleSetRequest struct {
	Name  string        `json:"name"`
	Rules []models.Rule `json:"rules"`
}

// handleCreateRuleSet drafts a new RuleSet at generation 0; it only
// becomes live once handlePublishRuleSet assigns it the next published
// generation number.
func (s *Server) handleCreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req createRuleSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rs := &models.RuleSet{Name: req.Name, Status: models.RuleSetDraft, Rules: req.Rules}
	if err := s.Store.RuleSets.SaveRuleSet(rs); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, rs)
}

func (s *Server) handlePublishRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rs, err := proofreading.Publish(s.Store.RuleSets, id)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleArchiveRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rs, err := proofreading.Archive(s.Store.RuleSets, id)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

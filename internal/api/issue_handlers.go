package api

import (
	"encoding/json"
	"net/http"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/proofreading"
)

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	issues, err := s.Store.Proofreading.ListIssuesForArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleAnalyzeArticle runs C4 against the article's current body, using
// whatever RuleSet is currently published, and carries forward issues from
// the prior analysis within the configured tolerance (§9).
func (s *Server) handleAnalyzeArticle(w http.ResponseWriter, r *http.Request) {
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
	rs, err := s.Store.RuleSets.LatestPublished()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rs == nil {
		writeError(w, http.StatusPreconditionFailed, errNoPublishedRuleSet)
		return
	}

	previous, err := s.Store.Proofreading.ListIssuesForArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	previousDecisions, err := s.Store.Proofreading.ListDecisionsForArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	current, failures := s.Analyzer.Analyze(r.Context(), rs, id, article.BodyText)
	current = proofreading.MatchCarryForward(previous, current, s.CarryForwardToleranceChars)

	for i := range current {
		if err := s.Store.Proofreading.InsertIssue(r.Context(), &current[i]); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	// §4.4.3: decisions whose issue no longer recurs are archived; decisions
	// whose issue recurred are carried forward onto the new issue row.
	migration := proofreading.MigrateDecisions(previous, previousDecisions, current, s.CarryForwardToleranceChars)
	if err := s.Store.Proofreading.ArchiveDecisions(r.Context(), migration.ToArchive); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, c := range migration.Carry {
		nd := c.New
		if err := s.Store.Proofreading.InsertDecision(r.Context(), &nd); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.Store.Proofreading.SupersedeDecision(r.Context(), c.PriorDecisionID, nd.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"issues":        current,
		"rule_failures": failures,
	})
}

type recordDecisionRequest struct {
	IssueID      int64                  `json:"issue_id"`
	Verdict      models.DecisionVerdict `json:"verdict"`
	ModifiedText string                 `json:"modified_text"`
	OperatorID   string                 `json:"operator_id"`
}

func (s *Server) handleRecordDecision(w http.ResponseWriter, r *http.Request) {
	var req recordDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	decision := &models.ProofreadingDecision{
		IssueID:      req.IssueID,
		Verdict:      req.Verdict,
		ModifiedText: req.ModifiedText,
		OperatorID:   req.OperatorID,
	}
	if err := s.Store.Proofreading.InsertDecision(r.Context(), decision); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, decision)
}

// handleFinalizeProofreading applies every accepted/modified decision to
// the article body via proofreading.Merge, persists the edited body, marks
// the article ready-to-publish, and advances the WorklistItem to
// ready_to_publish. Any conflicting decisions
// Merge could not apply are returned so an operator can resolve them by
// hand before re-finalizing.
func (s *Server) handleFinalizeProofreading(w http.ResponseWriter, r *http.Request) {
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
	issues, err := s.Store.Proofreading.ListIssuesForArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	decisions, err := s.Store.Proofreading.ListDecisionsForArticle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	plan := proofreading.Merge(article.BodyText, issues, decisions)
	if len(plan.Conflicts) > 0 {
		writeJSON(w, http.StatusConflict, map[string]any{"conflicts": plan.Conflicts})
		return
	}

	if err := s.Store.Articles.UpdateBody(r.Context(), id, article.BodyHTML, plan.Text); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.Store.Articles.UpdateStatus(r.Context(), id, models.ArticleStatusReadyToPublish); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if article.WorklistItemID != nil {
		if err := s.Orchestrator.Transition(r.Context(), *article.WorklistItemID, models.StatusReadyToPublish); err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"body_text": plan.Text})
}

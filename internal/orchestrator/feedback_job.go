package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/proofreading"
)

// StartFeedbackLoop runs RunFeedbackJob once a day until ctx is canceled,
// the daily rule-quality report named in §4.4's feedback-loop aggregation.
func (o *Orchestrator) StartFeedbackLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.RunFeedbackJob(ctx); err != nil {
				o.logger.Error("rule feedback job failed", zap.Error(err))
			}
		}
	}
}

// RunFeedbackJob aggregates every decision recorded on published or
// ready-to-publish articles, across all of them, into a per-rule
// acceptance-rate report and logs it for operator review; low-acceptance
// rules are flagged but never auto-disabled.
func (o *Orchestrator) RunFeedbackJob(ctx context.Context) error {
	rows, err := o.store.Pool.Query(ctx, `select id from articles where status in ('published', 'ready-to-publish')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var articleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		articleIDs = append(articleIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var allIssues []proofreadingIssueWithDecisions
	for _, id := range articleIDs {
		issues, err := o.store.Proofreading.ListIssuesForArticle(ctx, id)
		if err != nil {
			return err
		}
		decisions, err := o.store.Proofreading.ListDecisionsForArticle(ctx, id)
		if err != nil {
			return err
		}
		allIssues = append(allIssues, proofreadingIssueWithDecisions{issues: issues, decisions: decisions})
	}

	var issues []models.ProofreadingIssue
	var decisions []models.ProofreadingDecision
	for _, group := range allIssues {
		issues = append(issues, group.issues...)
		decisions = append(decisions, group.decisions...)
	}

	reports := proofreading.Aggregate(issues, decisions)
	for _, r := range reports {
		o.logger.Info("rule quality report",
			zap.String("rule_id", r.RuleID),
			zap.Int("total_issues", r.TotalIssues),
			zap.Float64("acceptance_rate", r.AcceptanceRate))
		if r.TotalIssues >= 10 && r.AcceptanceRate < 0.2 {
			o.logger.Warn("rule has low acceptance rate, consider tightening or retiring",
				zap.String("rule_id", r.RuleID), zap.Float64("acceptance_rate", r.AcceptanceRate))
		}
	}
	return nil
}

type proofreadingIssueWithDecisions struct {
	issues    []models.ProofreadingIssue
	decisions []models.ProofreadingDecision
}

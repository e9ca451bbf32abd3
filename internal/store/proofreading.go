package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// ProofreadingRepository persists models.ProofreadingIssue and
// models.ProofreadingDecision.
type ProofreadingRepository struct {
	pool *pgxpool.Pool
}

func (r *ProofreadingRepository) InsertIssue(ctx context.Context, iss *models.ProofreadingIssue) error {
	return r.pool.QueryRow(ctx, `
		insert into proofreading_issues
			(article_id, rule_id, rule_class, ruleset_generation, severity,
			 span_start, span_end, excerpt, explanation, suggestion, carried_forward)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		returning id, created_at`,
		iss.ArticleID, iss.RuleID, iss.RuleClass, iss.RulesetGeneration, iss.Severity,
		iss.Span.Start, iss.Span.End, iss.Excerpt, iss.Explanation, iss.Suggestion, iss.CarriedForward,
	).Scan(&iss.ID, &iss.CreatedAt)
}

func (r *ProofreadingRepository) ListIssuesForArticle(ctx context.Context, articleID int64) ([]models.ProofreadingIssue, error) {
	rows, err := r.pool.Query(ctx, `
		select id, article_id, rule_id, rule_class, ruleset_generation, severity,
		       span_start, span_end, excerpt, explanation, suggestion, carried_forward, created_at
		from proofreading_issues where article_id = $1 order by span_start`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProofreadingIssue
	for rows.Next() {
		var iss models.ProofreadingIssue
		if err := rows.Scan(&iss.ID, &iss.ArticleID, &iss.RuleID, &iss.RuleClass, &iss.RulesetGeneration,
			&iss.Severity, &iss.Span.Start, &iss.Span.End, &iss.Excerpt, &iss.Explanation,
			&iss.Suggestion, &iss.CarriedForward, &iss.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, iss)
	}
	return out, rows.Err()
}

func (r *ProofreadingRepository) InsertDecision(ctx context.Context, d *models.ProofreadingDecision) error {
	return r.pool.QueryRow(ctx, `
		insert into proofreading_decisions (issue_id, verdict, modified_text, operator_id, conflicts_with, carried)
		values ($1,$2,$3,$4,$5,$6)
		returning id, created_at`,
		d.IssueID, d.Verdict, d.ModifiedText, d.OperatorID, d.ConflictsWith, d.Carried,
	).Scan(&d.ID, &d.CreatedAt)
}

// ListDecisionsForArticle returns every non-archived decision against an
// article's issues, the set Merge should consider. Archived decisions
// (superseded by a carried-forward row, or orphaned by a disappeared issue,
// §4.4.3) are excluded.
func (r *ProofreadingRepository) ListDecisionsForArticle(ctx context.Context, articleID int64) ([]models.ProofreadingDecision, error) {
	rows, err := r.pool.Query(ctx, `
		select pd.id, pd.issue_id, pd.verdict, pd.modified_text, pd.operator_id, pd.conflicts_with,
		       pd.carried, pd.archived, pd.superseded_by, pd.created_at
		from proofreading_decisions pd
		join proofreading_issues pi on pi.id = pd.issue_id
		where pi.article_id = $1 and not pd.archived
		order by pd.id`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProofreadingDecision
	for rows.Next() {
		var d models.ProofreadingDecision
		if err := rows.Scan(&d.ID, &d.IssueID, &d.Verdict, &d.ModifiedText, &d.OperatorID,
			&d.ConflictsWith, &d.Carried, &d.Archived, &d.SupersededBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ArchiveDecisions marks the given decisions archived because their issue
// did not recur in a new analysis generation (§4.4.3). A nil/empty ids is a
// no-op.
func (r *ProofreadingRepository) ArchiveDecisions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		update proofreading_decisions set archived = true where id = any($1)`, ids)
	return err
}

// SupersedeDecision archives a prior decision and records the carried
// forward decision that replaced it.
func (r *ProofreadingRepository) SupersedeDecision(ctx context.Context, oldID, newID int64) error {
	_, err := r.pool.Exec(ctx, `
		update proofreading_decisions set archived = true, superseded_by = $1 where id = $2`, newID, oldID)
	return err
}

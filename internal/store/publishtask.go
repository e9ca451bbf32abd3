package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// PublishTaskRepository persists models.PublishTask.
type PublishTaskRepository struct {
	pool *pgxpool.Pool
}

func (r *PublishTaskRepository) Insert(ctx context.Context, t *models.PublishTask) error {
	stepsJSON, err := json.Marshal(t.Steps)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		insert into publish_tasks (article_id, provider, status, attempt, steps, cost_usd)
		values ($1,$2,$3,$4,$5,$6)
		returning id, created_at`,
		t.ArticleID, t.Provider, t.Status, t.Attempt, stepsJSON, t.CostUSD,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *PublishTaskRepository) MarkRunning(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		update publish_tasks set status = 'running', started_at = now() where id = $1`, id)
	return err
}

func (r *PublishTaskRepository) MarkSucceeded(ctx context.Context, id int64, outcome models.PublishOutcome) error {
	stepsJSON, err := json.Marshal(outcome.Steps)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		update publish_tasks
		set status = 'succeeded', finished_at = now(), cms_article_id = $1,
		    published_url = $2, steps = $3, cost_usd = $4
		where id = $5`,
		outcome.CMSArticleID, outcome.PublishedURL, stepsJSON, outcome.CostUSD, id)
	return err
}

func (r *PublishTaskRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.pool.Exec(ctx, `
		update publish_tasks set status = 'failed', finished_at = now(), failure_reason = $1
		where id = $2`, reason, id)
	return err
}

func (r *PublishTaskRepository) Get(ctx context.Context, id int64) (*models.PublishTask, error) {
	row := r.pool.QueryRow(ctx, `
		select id, article_id, provider, status, attempt, steps, cms_article_id, published_url,
		       failure_reason, cost_usd, started_at, finished_at, created_at
		from publish_tasks where id = $1`, id)

	var t models.PublishTask
	var stepsJSON []byte
	if err := row.Scan(&t.ID, &t.ArticleID, &t.Provider, &t.Status, &t.Attempt, &stepsJSON,
		&t.CMSArticleID, &t.PublishedURL, &t.FailureReason, &t.CostUSD,
		&t.StartedAt, &t.FinishedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stepsJSON, &t.Steps); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkCancelled stops a queued or running task short; it is only valid
// while the task has not already reached a terminal state.
func (r *PublishTaskRepository) MarkCancelled(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		update publish_tasks set status = 'failed', finished_at = now(), failure_reason = 'cancelled by operator'
		where id = $1 and status in ('queued', 'running')`, id)
	return err
}

func (r *PublishTaskRepository) ListForArticle(ctx context.Context, articleID int64) ([]models.PublishTask, error) {
	rows, err := r.pool.Query(ctx, `
		select id, article_id, provider, status, attempt, steps, cms_article_id, published_url,
		       failure_reason, cost_usd, started_at, finished_at, created_at
		from publish_tasks where article_id = $1 order by attempt`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PublishTask
	for rows.Next() {
		var t models.PublishTask
		var stepsJSON []byte
		if err := rows.Scan(&t.ID, &t.ArticleID, &t.Provider, &t.Status, &t.Attempt, &stepsJSON,
			&t.CMSArticleID, &t.PublishedURL, &t.FailureReason, &t.CostUSD,
			&t.StartedAt, &t.FinishedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stepsJSON, &t.Steps); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

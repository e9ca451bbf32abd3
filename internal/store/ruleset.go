package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// RuleSetRepository persists models.RuleSet and satisfies
// internal/proofreading.Store.
type RuleSetRepository struct {
	pool *pgxpool.Pool
}

func (r *RuleSetRepository) SaveRuleSet(rs *models.RuleSet) error {
	rulesJSON, err := json.Marshal(rs.Rules)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if rs.ID == 0 {
		return r.pool.QueryRow(ctx, `
			insert into rulesets (name, status, generation, rules, published_at, archived_at)
			values ($1,$2,$3,$4,$5,$6)
			returning id, created_at, updated_at`,
			rs.Name, rs.Status, rs.Generation, rulesJSON, rs.PublishedAt, rs.ArchivedAt,
		).Scan(&rs.ID, &rs.CreatedAt, &rs.UpdatedAt)
	}
	_, err = r.pool.Exec(ctx, `
		update rulesets set name=$1, status=$2, generation=$3, rules=$4,
		       published_at=$5, archived_at=$6, updated_at=now()
		where id = $7`,
		rs.Name, rs.Status, rs.Generation, rulesJSON, rs.PublishedAt, rs.ArchivedAt, rs.ID)
	return err
}

func (r *RuleSetRepository) LoadRuleSet(id int64) (*models.RuleSet, error) {
	row := r.pool.QueryRow(context.Background(), `
		select id, name, status, generation, rules, published_at, archived_at, created_at, updated_at
		from rulesets where id = $1`, id)
	return scanRuleSet(row)
}

func (r *RuleSetRepository) ListRuleSets() ([]models.RuleSet, error) {
	rows, err := r.pool.Query(context.Background(), `
		select id, name, status, generation, rules, published_at, archived_at, created_at, updated_at
		from rulesets order by generation desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RuleSet
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}

func (r *RuleSetRepository) LatestPublished() (*models.RuleSet, error) {
	row := r.pool.QueryRow(context.Background(), `
		select id, name, status, generation, rules, published_at, archived_at, created_at, updated_at
		from rulesets where status = 'published' order by generation desc limit 1`)
	rs, err := scanRuleSet(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rs, nil
}

func scanRuleSet(row scannable) (*models.RuleSet, error) {
	var rs models.RuleSet
	var rulesJSON []byte
	err := row.Scan(&rs.ID, &rs.Name, &rs.Status, &rs.Generation, &rulesJSON,
		&rs.PublishedAt, &rs.ArchivedAt, &rs.CreatedAt, &rs.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rulesJSON, &rs.Rules); err != nil {
		return nil, err
	}
	return &rs, nil
}

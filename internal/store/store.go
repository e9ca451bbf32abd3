// Package store is the Postgres persistence layer for every entity in
// internal/models, built on jackc/pgx/v5's pgxpool. Schema management is
// a plain embedded SQL file rather than a migration tool: the spec marks
// migration tooling as an out-of-scope external collaborator (DESIGN.md),
// so the schema is applied once at startup and versioned only by this
// source file, the way a small service with a single deploy target would.
package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Store bundles the connection pool and the per-entity repositories.
type Store struct {
	Pool *pgxpool.Pool

	Worklist      *WorklistRepository
	Articles      *ArticleRepository
	Proofreading  *ProofreadingRepository
	RuleSets      *RuleSetRepository
	PublishTasks  *PublishTaskRepository
}

// Open connects to dsn, applies the schema, and wires the repositories.
func Open(ctx context.Context, dsn string, maxConns, minConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse database dsn")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open database pool")
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{
		Pool:         pool,
		Worklist:     &WorklistRepository{pool: pool},
		Articles:     &ArticleRepository{pool: pool},
		Proofreading: &ProofreadingRepository{pool: pool},
		RuleSets:     &RuleSetRepository{pool: pool},
		PublishTasks: &PublishTaskRepository{pool: pool},
	}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// WithItemLock runs fn while holding a Postgres session-scoped advisory
// lock keyed on the WorklistItem's ID, serializing any two callers that
// would otherwise race on the same item's state-machine transition (the
// per-item mutual exclusion named in §5).
func (s *Store) WithItemLock(ctx context.Context, itemID int64, fn func(ctx context.Context) error) error {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection for advisory lock")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "select pg_advisory_lock($1)", itemID); err != nil {
		return errors.Wrap(err, "acquire advisory lock")
	}
	defer conn.Exec(ctx, "select pg_advisory_unlock($1)", itemID)

	return fn(ctx)
}

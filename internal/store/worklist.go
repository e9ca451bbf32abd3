package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// WorklistRepository persists models.WorklistItem.
type WorklistRepository struct {
	pool *pgxpool.Pool
}

func (r *WorklistRepository) Insert(ctx context.Context, item *models.WorklistItem) error {
	metaJSON, err := json.Marshal(item.DocumentMetadata)
	if err != nil {
		return err
	}
	notesJSON, err := json.Marshal(item.Notes)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, `
		insert into worklist_items
			(document_id, raw_html, raw_text, title, author, status,
			 document_metadata, synced_at, notes, auto_process_flag)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning id, created_at, updated_at`,
		item.DocumentID, item.RawHTML, item.RawText, item.Title, item.Author, item.Status,
		metaJSON, item.SyncedAt, notesJSON, item.AutoProcessFlag,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *WorklistRepository) Get(ctx context.Context, id int64) (*models.WorklistItem, error) {
	row := r.pool.QueryRow(ctx, `
		select id, document_id, raw_html, raw_text, title, author, article_id, status,
		       document_metadata, synced_at, notes, auto_process_flag, created_at, updated_at
		from worklist_items where id = $1`, id)
	return scanWorklistItem(row)
}

func (r *WorklistRepository) GetByDocumentID(ctx context.Context, documentID string) (*models.WorklistItem, error) {
	row := r.pool.QueryRow(ctx, `
		select id, document_id, raw_html, raw_text, title, author, article_id, status,
		       document_metadata, synced_at, notes, auto_process_flag, created_at, updated_at
		from worklist_items where document_id = $1`, documentID)
	item, err := scanWorklistItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *WorklistRepository) ListByStatus(ctx context.Context, status models.WorklistStatus) ([]*models.WorklistItem, error) {
	rows, err := r.pool.Query(ctx, `
		select id, document_id, raw_html, raw_text, title, author, article_id, status,
		       document_metadata, synced_at, notes, auto_process_flag, created_at, updated_at
		from worklist_items where status = $1 order by id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.WorklistItem
	for rows.Next() {
		item, err := scanWorklistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TransitionStatus moves item from its current status to next, failing
// with ErrStaleState if the caller's expected "from" no longer
// matches the stored row (optimistic concurrency). Callers should hold
// Store.WithItemLock around this for the duration of any preceding work.
func (r *WorklistRepository) TransitionStatus(ctx context.Context, id int64, from, next models.WorklistStatus) error {
	tag, err := r.pool.Exec(ctx, `
		update worklist_items set status = $1, updated_at = now()
		where id = $2 and status = $3`, next, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.ErrStaleState, "worklist item %d is not in status %s", id, from)
	}
	return nil
}

// UpdateSyncedContent overwrites a WorklistItem's synced content after a
// document-store re-fetch (§4.5.3), used only for items not parked in a
// review state.
func (r *WorklistRepository) UpdateSyncedContent(ctx context.Context, id int64, rawHTML, title, author string, meta models.DocumentMetadata, syncedAt time.Time) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		update worklist_items
		set raw_html = $1, title = $2, author = $3, document_metadata = $4,
		    synced_at = $5, updated_at = now()
		where id = $6`,
		rawHTML, title, author, metaJSON, syncedAt, id)
	return err
}

func (r *WorklistRepository) AppendNote(ctx context.Context, id int64, note models.Note) error {
	noteJSON, err := json.Marshal(note)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		update worklist_items set notes = notes || $1::jsonb, updated_at = now()
		where id = $2`, string(noteJSON), id)
	return err
}

func (r *WorklistRepository) LinkArticle(ctx context.Context, id, articleID int64) error {
	_, err := r.pool.Exec(ctx, `
		update worklist_items set article_id = $1, updated_at = now() where id = $2`, articleID, id)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWorklistItem(row scannable) (*models.WorklistItem, error) {
	var item models.WorklistItem
	var metaJSON, notesJSON []byte
	err := row.Scan(&item.ID, &item.DocumentID, &item.RawHTML, &item.RawText, &item.Title, &item.Author,
		&item.ArticleID, &item.Status, &metaJSON, &item.SyncedAt, &notesJSON,
		&item.AutoProcessFlag, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metaJSON, &item.DocumentMetadata); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(notesJSON, &item.Notes); err != nil {
		return nil, err
	}
	return &item, nil
}

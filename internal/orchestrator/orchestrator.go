// Package orchestrator implements C5, the worklist orchestrator: state
// machine enforcement, a bounded worker pool dispatching per-item jobs,
// a document-store sync job, and a daily rule-quality feedback job. The
// sync/poll-cycle shape (list changed items, dispatch per-item work,
// sweep for anything the event path missed) follows server/poller.go's
// pollAgentStatuses/janitorSweep pair.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldnotes/articlepipeline/internal/docstore"
	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/store"
)

// Orchestrator wires the document-store sync job and the bounded worker
// pool that advances WorklistItems through the state machine.
type Orchestrator struct {
	store    *store.Store
	docs     docstore.Client
	logger   *zap.Logger
	jobs     chan job
	poolSize int

	syncMu   sync.Mutex
	lastSync time.Time

	// ParseJob runs C2 for a newly synced item; SyncOnce enqueues it right
	// after auto-transitioning a fresh pending item to parsing. Set by the
	// caller once the parse job body (which needs the LLM client and store)
	// exists, since that lives above this package.
	ParseJob func(ctx context.Context, itemID int64) error
}

type job struct {
	itemID int64
	run    func(ctx context.Context, itemID int64) error
}

// New builds an Orchestrator with a worker pool sized poolSize and a job
// queue buffered to 4x poolSize (§5 backpressure: a full queue blocks the
// producer rather than growing unbounded).
func New(st *store.Store, docs docstore.Client, logger *zap.Logger, poolSize int) *Orchestrator {
	return &Orchestrator{
		store:    st,
		docs:     docs,
		logger:   logger,
		jobs:     make(chan job, poolSize*4),
		poolSize: poolSize,
	}
}

// Run starts the worker pool and blocks until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) {
	for i := 0; i < o.poolSize; i++ {
		go o.worker(ctx, i)
	}
	<-ctx.Done()
}

func (o *Orchestrator) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-o.jobs:
			if err := j.run(ctx, j.itemID); err != nil {
				o.logger.Error("worklist job failed", zap.Int64("item_id", j.itemID), zap.Error(err))
			}
		}
	}
}

// Enqueue submits a job for itemID. Blocks if the queue is full
// (backpressure), respecting ctx cancellation.
func (o *Orchestrator) Enqueue(ctx context.Context, itemID int64, run func(ctx context.Context, itemID int64) error) error {
	select {
	case o.jobs <- job{itemID: itemID, run: run}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartSyncLoop runs SyncOnce on a ticker until ctx is canceled, the same
// "poll on an interval, log and continue on a bad cycle" shape as
// server/poller.go's pollAgentStatuses being invoked by a cluster job.
func (o *Orchestrator) StartSyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.SyncOnce(ctx); err != nil {
				o.logger.Error("document store sync failed", zap.Error(err))
			}
		}
	}
}

// SyncOnce is the document-store sync job (§4.5.3): idempotent, named-lock
// serialized via Postgres advisory lock so two process instances never run
// it concurrently, fetching everything changed since the last successful
// sync, inserting a pending WorklistItem per new document and refreshing
// the content of changed ones.
func (o *Orchestrator) SyncOnce(ctx context.Context) error {
	const syncLockKey = 1 // fixed advisory-lock key naming the sync job itself

	conn, err := o.store.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", syncLockKey).Scan(&acquired); err != nil {
		return err
	}
	if !acquired {
		o.logger.Debug("sync already running on another instance, skipping cycle")
		return nil
	}
	defer conn.Exec(ctx, "select pg_advisory_unlock($1)", syncLockKey)

	docs, err := o.docs.ListChanged(ctx, o.lastSyncTime())
	if err != nil {
		return err
	}

	for _, d := range docs {
		existing, err := o.store.Worklist.GetByDocumentID(ctx, d.ID)
		if err != nil {
			o.logger.Error("lookup worklist item failed", zap.String("document_id", d.ID), zap.Error(err))
			continue
		}

		if existing == nil {
			o.syncNewDocument(ctx, d)
			continue
		}

		if !d.LastModified.After(existing.SyncedAt) {
			continue // known and unchanged: no-op
		}

		if models.IsReviewState(existing.Status) {
			note := models.Note{
				Author: "system",
				Text:   fmt.Sprintf("upstream changed at %s", d.LastModified.Format(time.RFC3339)),
			}
			if err := o.store.Worklist.AppendNote(ctx, existing.ID, note); err != nil {
				o.logger.Error("append upstream-changed note failed", zap.Int64("item_id", existing.ID), zap.Error(err))
			}
			continue
		}

		meta := models.DocumentMetadata{Link: d.Link, Owners: d.Owners, LastModified: d.LastModified}
		syncedAt := time.Now()
		if err := o.store.Worklist.UpdateSyncedContent(ctx, existing.ID, d.HTML, d.Title, d.Author, meta, syncedAt); err != nil {
			o.logger.Error("update synced content failed", zap.Int64("item_id", existing.ID), zap.Error(err))
			continue
		}
		o.recordSyncTime(syncedAt)
	}

	return nil
}

// syncNewDocument creates the pending WorklistItem for a document the sync
// job has never seen, then auto-transitions it into parsing and enqueues
// the parse job (§4.5.1: `pending -> parsing` happens automatically after
// sync, with no operator action required).
func (o *Orchestrator) syncNewDocument(ctx context.Context, d docstore.Document) {
	item := &models.WorklistItem{
		DocumentID: d.ID,
		RawHTML:    d.HTML,
		Title:      d.Title,
		Author:     d.Author,
		Status:     models.StatusPending,
		DocumentMetadata: models.DocumentMetadata{
			Link:         d.Link,
			Owners:       d.Owners,
			LastModified: d.LastModified,
		},
		SyncedAt: time.Now(),
	}
	if err := o.store.Worklist.Insert(ctx, item); err != nil {
		o.logger.Error("insert worklist item failed", zap.String("document_id", d.ID), zap.Error(err))
		return
	}
	o.recordSyncTime(item.SyncedAt)

	if o.ParseJob == nil {
		return
	}
	if err := o.Transition(ctx, item.ID, models.StatusParsing); err != nil {
		o.logger.Error("auto-transition to parsing failed", zap.Int64("item_id", item.ID), zap.Error(err))
		return
	}
	if err := o.Enqueue(ctx, item.ID, o.ParseJob); err != nil {
		o.logger.Error("enqueue parse job failed", zap.Int64("item_id", item.ID), zap.Error(err))
	}
}

func (o *Orchestrator) lastSyncTime() time.Time {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	return o.lastSync
}

func (o *Orchestrator) recordSyncTime(t time.Time) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	if t.After(o.lastSync) {
		o.lastSync = t
	}
}

package orchestrator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Transition moves item from its current status to next under the item's
// advisory lock, validating the edge against models.CanTransition first so
// an invalid request fails fast without ever touching the database row.
func (o *Orchestrator) Transition(ctx context.Context, itemID int64, next models.WorklistStatus) error {
	return o.store.WithItemLock(ctx, itemID, func(ctx context.Context) error {
		item, err := o.store.Worklist.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if !models.CanTransition(item.Status, next) {
			return errors.Wrapf(models.ErrInvariantViolation, "cannot transition worklist item %d from %s to %s", itemID, item.Status, next)
		}
		return o.store.Worklist.TransitionStatus(ctx, itemID, item.Status, next)
	})
}

// ResetFailed is the operator override: moves a failed item back to an
// earlier lane, always recording the operator's note as the reason.
func (o *Orchestrator) ResetFailed(ctx context.Context, itemID int64, target models.WorklistStatus, operator, reason string) error {
	return o.store.WithItemLock(ctx, itemID, func(ctx context.Context) error {
		item, err := o.store.Worklist.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if !models.CanResetFrom(item.Status, target) {
			return errors.Wrapf(models.ErrOperatorAction, "cannot reset worklist item %d from %s to %s", itemID, item.Status, target)
		}
		if reason == "" {
			return errors.Wrap(models.ErrOperatorAction, "a reset requires a note explaining the override")
		}
		if err := o.store.Worklist.AppendNote(ctx, itemID, models.Note{Author: operator, Text: reason}); err != nil {
			return err
		}
		return o.store.Worklist.TransitionStatus(ctx, itemID, item.Status, target)
	})
}

// Fail records a WorklistItem as failed, appending the cause's message as a
// system note. Every cause is handled the same way: Fail does not tell
// transient errors from integrity violations (IsTransient is separate).
func (o *Orchestrator) Fail(ctx context.Context, itemID int64, cause error) error {
	return o.store.WithItemLock(ctx, itemID, func(ctx context.Context) error {
		item, err := o.store.Worklist.Get(ctx, itemID)
		if err != nil {
			return err
		}
		if !models.CanTransition(item.Status, models.StatusFailed) {
			return errors.Wrapf(models.ErrInvariantViolation, "worklist item %d in %s cannot fail", itemID, item.Status)
		}
		if err := o.store.Worklist.AppendNote(ctx, itemID, models.Note{Author: "system", Text: cause.Error()}); err != nil {
			return err
		}
		return o.store.Worklist.TransitionStatus(ctx, itemID, item.Status, models.StatusFailed)
	})
}

// IsTransient reports whether cause should be retried automatically rather
// than parked in failed for an operator (§7: ErrTransientExternal retries,
// everything else goes straight to failed).
func IsTransient(cause error) bool {
	return errors.Is(cause, models.ErrTransientExternal)
}

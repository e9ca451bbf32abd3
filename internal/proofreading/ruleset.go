// Package proofreading implements C4: running a published RuleSet's rules
// against an Article, merging operator decisions, carrying issues forward
// across re-analysis, and aggregating decision feedback into rule-quality
// reports. RuleSet lifecycle (draft -> published -> archived) mirrors the
// idempotent-bootstrap shape of server/reviewloop.go's ensureReviewLoop:
// publishing is the only irreversible step, and every other transition can
// be retried safely.
package proofreading

import (
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Store is the subset of persistence the lifecycle functions need;
// internal/store's RuleSetRepository satisfies it.
type Store interface {
	SaveRuleSet(rs *models.RuleSet) error
	LoadRuleSet(id int64) (*models.RuleSet, error)
	LatestPublished() (*models.RuleSet, error)
}

// validateRuleSet enforces §4.4.4's publish-time invariants: every rule
// carries a pattern that compiles, and no two rules in the set share a
// code.
func validateRuleSet(rs *models.RuleSet) error {
	seenCodes := make(map[string]bool, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.Pattern == "" {
			return errors.Wrapf(models.ErrInvariantViolation, "rule %s has no pattern", r.ID)
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return errors.Wrapf(models.ErrInvariantViolation, "rule %s pattern does not compile: %s", r.ID, err)
		}
		if r.Code == "" {
			return errors.Wrapf(models.ErrInvariantViolation, "rule %s has no code", r.ID)
		}
		if seenCodes[r.Code] {
			return errors.Wrapf(models.ErrInvariantViolation, "duplicate rule code %s", r.Code)
		}
		seenCodes[r.Code] = true
	}
	return nil
}

// Publish transitions a draft RuleSet to published. Publishing is
// transactional (§4.4.4): the ruleset is validated first; then, if another
// ruleset is currently published, it is demoted to archived; only then is
// the new ruleset stamped with the next generation number and saved. A
// ruleset may only be published from draft; publishing an already-published
// or archived set is an invariant violation. In-flight analyses that
// started against the previous generation complete normally since their
// issues are already stamped with that generation.
func Publish(store Store, id int64) (*models.RuleSet, error) {
	rs, err := store.LoadRuleSet(id)
	if err != nil {
		return nil, err
	}
	if rs.Status != models.RuleSetDraft {
		return nil, errors.Wrapf(models.ErrInvariantViolation, "ruleset %d is %s, not draft", id, rs.Status)
	}
	if err := validateRuleSet(rs); err != nil {
		return nil, err
	}

	current, err := store.LatestPublished()
	if err != nil {
		return nil, err
	}

	nextGeneration := int64(1)
	if current != nil {
		nextGeneration = current.Generation + 1

		now := time.Now()
		current.Status = models.RuleSetArchived
		current.ArchivedAt = &now
		current.UpdatedAt = now
		if err := store.SaveRuleSet(current); err != nil {
			return nil, errors.Wrapf(err, "archiving previous ruleset %d", current.ID)
		}
	}

	now := time.Now()
	rs.Status = models.RuleSetPublished
	rs.Generation = nextGeneration
	rs.PublishedAt = &now
	rs.UpdatedAt = now

	if err := store.SaveRuleSet(rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Archive retires a published RuleSet so it's no longer picked up by new
// analyses, without deleting its history (ProofreadingIssues still
// reference its generation number).
func Archive(store Store, id int64) (*models.RuleSet, error) {
	rs, err := store.LoadRuleSet(id)
	if err != nil {
		return nil, err
	}
	if rs.Status != models.RuleSetPublished {
		return nil, errors.Wrapf(models.ErrInvariantViolation, "ruleset %d is %s, not published", id, rs.Status)
	}

	now := time.Now()
	rs.Status = models.RuleSetArchived
	rs.ArchivedAt = &now
	rs.UpdatedAt = now

	if err := store.SaveRuleSet(rs); err != nil {
		return nil, err
	}
	return rs, nil
}

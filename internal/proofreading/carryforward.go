package proofreading

import (
	"github.com/fieldnotes/articlepipeline/internal/models"
)

// CarryForwardTolerance is the default span-drift tolerance (in
// characters) used to match a new analysis's issues against the prior
// generation's, resolving the spec's Open Question (§9): 20 characters
// either direction on Start counts as "the same issue," since small edits
// upstream of an issue shift its offset without changing its substance.
const CarryForwardTolerance = 20

// MatchCarryForward marks each issue in current as CarriedForward when it
// has the same RuleID and a Start within toleranceChars of some issue in
// previous. Matched previous issues are consumed (not reused for a second
// current issue), so a rule firing twice near the same spot still only
// carries forward once.
func MatchCarryForward(previous, current []models.ProofreadingIssue, toleranceChars int) []models.ProofreadingIssue {
	consumed := make([]bool, len(previous))

	out := make([]models.ProofreadingIssue, len(current))
	copy(out, current)

	for i := range out {
		for j, prev := range previous {
			if consumed[j] {
				continue
			}
			if prev.RuleID != out[i].RuleID {
				continue
			}
			if abs(prev.Span.Start-out[i].Span.Start) <= toleranceChars {
				out[i].CarriedForward = true
				consumed[j] = true
				break
			}
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// CarriedDecision is a prior decision re-created against a recurring issue
// from a fresh analysis generation.
type CarriedDecision struct {
	// PriorDecisionID is the decision being replaced; it gets archived and
	// superseded_by pointed at the new row once New is inserted.
	PriorDecisionID int64
	// New is the decision to insert: IssueID already points at the new
	// issue, Carried is true, and no ID is assigned yet.
	New models.ProofreadingDecision
}

// DecisionMigration is the result of reconciling operator decisions made
// against a prior analysis with a fresh one (§4.4.3).
type DecisionMigration struct {
	// ToArchive holds prior decision IDs whose issue did not recur in the
	// new analysis; they no longer apply and are archived, not deleted.
	ToArchive []int64
	// Carry holds decisions to carry forward onto an issue that recurred.
	Carry []CarriedDecision
}

// MigrateDecisions reconciles prevDecisions (each tied to one of
// prevIssues) against current, a just-persisted set of issues from a fresh
// analysis (current issues must already have their IDs assigned). A prior
// decision's issue "recurs" when some not-yet-matched current issue shares
// its RuleID, has an identical Excerpt (the original flagged text), and a
// Start within toleranceChars. Each current issue is consumed by at most one
// prior decision.
func MigrateDecisions(prevIssues []models.ProofreadingIssue, prevDecisions []models.ProofreadingDecision, current []models.ProofreadingIssue, toleranceChars int) DecisionMigration {
	prevByID := make(map[int64]models.ProofreadingIssue, len(prevIssues))
	for _, iss := range prevIssues {
		prevByID[iss.ID] = iss
	}

	consumed := make([]bool, len(current))

	var migration DecisionMigration
	for _, d := range prevDecisions {
		prevIssue, ok := prevByID[d.IssueID]
		if !ok {
			migration.ToArchive = append(migration.ToArchive, d.ID)
			continue
		}

		matchIdx := -1
		for i, cur := range current {
			if consumed[i] {
				continue
			}
			if cur.RuleID != prevIssue.RuleID {
				continue
			}
			if cur.Excerpt != prevIssue.Excerpt {
				continue
			}
			if abs(cur.Span.Start-prevIssue.Span.Start) > toleranceChars {
				continue
			}
			matchIdx = i
			break
		}

		if matchIdx == -1 {
			migration.ToArchive = append(migration.ToArchive, d.ID)
			continue
		}
		consumed[matchIdx] = true

		carried := d
		carried.ID = 0
		carried.IssueID = current[matchIdx].ID
		carried.Carried = true
		carried.Archived = false
		carried.SupersededBy = nil
		migration.Carry = append(migration.Carry, CarriedDecision{PriorDecisionID: d.ID, New: carried})
	}
	return migration
}

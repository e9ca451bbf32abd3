package proofreading

import (
	"sort"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// MergePlan is the result of applying a set of decisions to an article
// body: the edited text plus any decisions whose spans overlapped and so
// could not both be applied cleanly.
type MergePlan struct {
	Text      string
	Conflicts [][]int64 // groups of decision IDs whose spans overlap
}

// Merge applies every "accepted" or "modified" decision's edit to body,
// in reverse span order so earlier edits don't invalidate later offsets.
// When two edits' spans overlap, the earlier-starting one still applies;
// only the later-starting one is skipped as conflicting, left for manual
// resolution (§4.4.2). "rejected" and "deferred" decisions are never
// applied.
func Merge(body string, issues []models.ProofreadingIssue, decisions []models.ProofreadingDecision) MergePlan {
	issueByID := make(map[int64]models.ProofreadingIssue, len(issues))
	for _, iss := range issues {
		issueByID[iss.ID] = iss
	}

	type edit struct {
		decisionID int64
		span       models.TextSpan
		text       string
	}

	var edits []edit
	for _, d := range decisions {
		if d.Verdict != models.DecisionAccepted && d.Verdict != models.DecisionModified {
			continue
		}
		iss, ok := issueByID[d.IssueID]
		if !ok {
			continue
		}
		text := iss.Suggestion
		if d.Verdict == models.DecisionModified {
			text = d.ModifiedText
		}
		edits = append(edits, edit{decisionID: d.ID, span: iss.Span, text: text})
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })

	var conflicts [][]int64
	applied := make([]edit, 0, len(edits))
	for _, e := range edits {
		if len(applied) > 0 {
			last := applied[len(applied)-1]
			if e.span.Start < last.span.End {
				// e starts inside the last applied edit's span: e is the
				// later-starting side of the conflict, so it is dropped;
				// last keeps applying.
				conflicts = append(conflicts, []int64{last.decisionID, e.decisionID})
				continue
			}
		}
		applied = append(applied, e)
	}

	sort.Slice(applied, func(i, j int) bool { return applied[i].span.Start > applied[j].span.Start })

	out := []byte(body)
	for _, e := range applied {
		if e.span.Start < 0 || e.span.End > len(out) || e.span.Start > e.span.End {
			continue
		}
		merged := append([]byte{}, out[:e.span.Start]...)
		merged = append(merged, []byte(e.text)...)
		merged = append(merged, out[e.span.End:]...)
		out = merged
	}

	return MergePlan{Text: string(out), Conflicts: conflicts}
}

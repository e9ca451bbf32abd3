package proofreading

import "github.com/fieldnotes/articlepipeline/internal/models"

// RuleQualityReport summarizes how operators disposed of one rule's issues
// over a feedback window, the input to C4's daily rule-quality report job.
type RuleQualityReport struct {
	RuleID         string
	TotalIssues    int
	Accepted       int
	Rejected       int
	Modified       int
	Deferred       int
	AcceptanceRate float64
}

// Aggregate groups decisions by the rule that produced their issue and
// computes an acceptance rate per rule, flagging rules with a low rate as
// candidates for tightening or retirement (surfaced via the feedback job,
// not auto-applied).
func Aggregate(issues []models.ProofreadingIssue, decisions []models.ProofreadingDecision) []RuleQualityReport {
	issueRule := make(map[int64]string, len(issues))
	for _, iss := range issues {
		issueRule[iss.ID] = iss.RuleID
	}

	reports := make(map[string]*RuleQualityReport)
	get := func(ruleID string) *RuleQualityReport {
		r, ok := reports[ruleID]
		if !ok {
			r = &RuleQualityReport{RuleID: ruleID}
			reports[ruleID] = r
		}
		return r
	}

	for _, d := range decisions {
		ruleID, ok := issueRule[d.IssueID]
		if !ok {
			continue
		}
		r := get(ruleID)
		r.TotalIssues++
		switch d.Verdict {
		case models.DecisionAccepted:
			r.Accepted++
		case models.DecisionRejected:
			r.Rejected++
		case models.DecisionModified:
			r.Modified++
		case models.DecisionDeferred:
			r.Deferred++
		}
	}

	out := make([]RuleQualityReport, 0, len(reports))
	for _, r := range reports {
		if r.TotalIssues > 0 {
			r.AcceptanceRate = float64(r.Accepted+r.Modified) / float64(r.TotalIssues)
		}
		out = append(out, *r)
	}
	return out
}

package proofreading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

func TestAggregate_ComputesAcceptanceRatePerRule(t *testing.T) {
	issues := []models.ProofreadingIssue{
		{ID: 1, RuleID: "GR-001"},
		{ID: 2, RuleID: "GR-001"},
		{ID: 3, RuleID: "GR-002"},
	}
	decisions := []models.ProofreadingDecision{
		{IssueID: 1, Verdict: models.DecisionAccepted},
		{IssueID: 2, Verdict: models.DecisionRejected},
		{IssueID: 3, Verdict: models.DecisionModified},
	}

	reports := Aggregate(issues, decisions)
	require.Len(t, reports, 2)

	byRule := make(map[string]RuleQualityReport, len(reports))
	for _, r := range reports {
		byRule[r.RuleID] = r
	}

	gr1 := byRule["GR-001"]
	assert.Equal(t, 2, gr1.TotalIssues)
	assert.Equal(t, 1, gr1.Accepted)
	assert.Equal(t, 1, gr1.Rejected)
	assert.InDelta(t, 0.5, gr1.AcceptanceRate, 0.0001)

	gr2 := byRule["GR-002"]
	assert.Equal(t, 1, gr2.TotalIssues)
	assert.Equal(t, 1, gr2.Modified)
	assert.InDelta(t, 1.0, gr2.AcceptanceRate, 0.0001)
}

func TestAggregate_DecisionForUnknownIssueIgnored(t *testing.T) {
	decisions := []models.ProofreadingDecision{
		{IssueID: 999, Verdict: models.DecisionAccepted},
	}
	reports := Aggregate(nil, decisions)
	assert.Empty(t, reports)
}

func TestAggregate_DeferredCountsTowardTotalNotAcceptance(t *testing.T) {
	issues := []models.ProofreadingIssue{{ID: 1, RuleID: "GR-003"}}
	decisions := []models.ProofreadingDecision{{IssueID: 1, Verdict: models.DecisionDeferred}}

	reports := Aggregate(issues, decisions)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].TotalIssues)
	assert.Equal(t, 1, reports[0].Deferred)
	assert.Zero(t, reports[0].AcceptanceRate)
}

func TestAggregate_NoDecisionsReturnsEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil))
}

package proofreading

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/models"
)

type fakeAnalyzerLLM struct {
	issues []rawIssue
	err    error
}

func (f *fakeAnalyzerLLM) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if f.err != nil {
		return llm.CompletionResult{}, f.err
	}
	b, err := json.Marshal(issuesToolOutput{Issues: f.issues})
	if err != nil {
		return llm.CompletionResult{}, err
	}
	return llm.CompletionResult{ToolInput: b}, nil
}

func TestAnalyze_OrdersByOffsetThenSeverityDescending(t *testing.T) {
	fake := &fakeAnalyzerLLM{issues: []rawIssue{
		{RuleID: "r1", Severity: "warning", Start: 10, End: 15},
		{RuleID: "r2", Severity: "critical", Start: 10, End: 12},
		{RuleID: "r3", Severity: "error", Start: 5, End: 8},
		{RuleID: "r4", Severity: "info", Start: 10, End: 20},
	}}
	a := NewAnalyzer(fake)
	rs := &models.RuleSet{Generation: 1, Rules: []models.Rule{
		{ID: "r1", Class: models.RuleClassGrammar, Enabled: true},
	}}

	issues, failures := a.Analyze(context.Background(), rs, 1, "body text")
	assert.Empty(t, failures)
	require.Len(t, issues, 4)

	assert.Equal(t, "r3", issues[0].RuleID) // start 5
	assert.Equal(t, "r2", issues[1].RuleID) // start 10, critical
	assert.Equal(t, "r1", issues[2].RuleID) // start 10, warning
	assert.Equal(t, "r4", issues[3].RuleID) // start 10, info
}

func TestAnalyze_DisabledRulesNeverSent(t *testing.T) {
	fake := &fakeAnalyzerLLM{}
	a := NewAnalyzer(fake)
	rs := &models.RuleSet{Rules: []models.Rule{
		{ID: "r1", Class: models.RuleClassGrammar, Enabled: false},
	}}

	issues, failures := a.Analyze(context.Background(), rs, 1, "body")
	assert.Empty(t, issues)
	assert.Empty(t, failures)
}

type analyzerErr struct{}

func (analyzerErr) Error() string { return "boom" }

func TestAnalyze_RuleFailureContainedNotFatal(t *testing.T) {
	fake := &fakeAnalyzerLLM{err: analyzerErr{}}
	a := NewAnalyzer(fake)
	rs := &models.RuleSet{Rules: []models.Rule{
		{ID: "r1", Class: models.RuleClassGrammar, Enabled: true},
		{ID: "r2", Class: models.RuleClassGrammar, Enabled: true},
	}}

	issues, failures := a.Analyze(context.Background(), rs, 1, "body")
	assert.Empty(t, issues)
	assert.Len(t, failures, 2)
}

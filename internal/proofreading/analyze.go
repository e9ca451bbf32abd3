package proofreading

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Analyzer runs a RuleSet's rules against an article's body text, one LLM
// call per rule class (§4.4) so a single malformed rule can't poison the
// whole analysis — a rule that errors is recorded and skipped, not fatal
// to the run (rule-runtime-error containment).
type Analyzer struct {
	llmClient llm.Client
}

func NewAnalyzer(llmClient llm.Client) *Analyzer {
	return &Analyzer{llmClient: llmClient}
}

var issueToolSchema = map[string]any{
	"properties": map[string]any{
		"issues": map[string]any{"type": "array"},
	},
	"required": []string{"issues"},
}

type rawIssue struct {
	RuleID      string `json:"rule_id"`
	Severity    string `json:"severity"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Excerpt     string `json:"excerpt"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion"`
}

type issuesToolOutput struct {
	Issues []rawIssue `json:"issues"`
}

// RuleFailure records a rule that errored during analysis, for operator
// visibility without aborting the rest of the run.
type RuleFailure struct {
	RuleID string
	Err    error
}

// Analyze groups rs.Rules by class and runs each enabled class's rules in
// one call, merging all resulting issues. Disabled rules are skipped
// entirely, never sent to the model.
func (a *Analyzer) Analyze(ctx context.Context, rs *models.RuleSet, articleID int64, bodyText string) ([]models.ProofreadingIssue, []RuleFailure) {
	byClass := map[models.RuleClass][]models.Rule{}
	for _, r := range rs.Rules {
		if !r.Enabled {
			continue
		}
		byClass[r.Class] = append(byClass[r.Class], r)
	}

	var issues []models.ProofreadingIssue
	var failures []RuleFailure

	classes := make([]models.RuleClass, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	for _, class := range classes {
		rules := byClass[class]
		classIssues, err := a.analyzeClass(ctx, class, rules, bodyText)
		if err != nil {
			for _, r := range rules {
				failures = append(failures, RuleFailure{RuleID: r.ID, Err: err})
			}
			continue
		}
		for i := range classIssues {
			classIssues[i].ArticleID = articleID
			classIssues[i].RulesetGeneration = rs.Generation
		}
		issues = append(issues, classIssues...)
	}

	// §4.4.1: primarily by start_offset ascending, then severity descending
	// (critical > error > warning > info) as the tie-break.
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Span.Start != issues[j].Span.Start {
			return issues[i].Span.Start < issues[j].Span.Start
		}
		return issues[i].Severity.SeverityRank() > issues[j].Severity.SeverityRank()
	})

	return issues, failures
}

func (a *Analyzer) analyzeClass(ctx context.Context, class models.RuleClass, rules []models.Rule, bodyText string) ([]models.ProofreadingIssue, error) {
	prompt := fmt.Sprintf("Apply these %s rules to the article text and report every violation with its span:\n", class)
	for _, r := range rules {
		prompt += fmt.Sprintf("- [%s] %s: %s\n", r.ID, r.Description, r.Prompt)
	}
	prompt += "\nArticle text:\n" + bodyText

	completion, err := a.llmClient.Complete(ctx, llm.CompletionRequest{
		Prompt:     prompt,
		ToolName:   "report_issues",
		ToolSchema: issueToolSchema,
	})
	if err != nil {
		return nil, errors.Wrap(err, "analyze class "+string(class))
	}

	var out issuesToolOutput
	if err := json.Unmarshal(completion.ToolInput, &out); err != nil {
		return nil, errors.Wrap(models.ErrInvalidUpstreamData, err.Error())
	}

	issues := make([]models.ProofreadingIssue, 0, len(out.Issues))
	for _, ri := range out.Issues {
		issues = append(issues, models.ProofreadingIssue{
			RuleID:      ri.RuleID,
			RuleClass:   class,
			Severity:    models.IssueSeverity(ri.Severity),
			Span:        models.TextSpan{Start: ri.Start, End: ri.End},
			Excerpt:     ri.Excerpt,
			Explanation: ri.Explanation,
			Suggestion:  ri.Suggestion,
		})
	}
	return issues, nil
}

package models

import "time"

// RuleClass is one of the six proofreading rule categories (§4.4).
type RuleClass string

const (
	RuleClassGrammar      RuleClass = "grammar"
	RuleClassStyle        RuleClass = "style"
	RuleClassFactual      RuleClass = "factual"
	RuleClassBrandVoice   RuleClass = "brand_voice"
	RuleClassSEO          RuleClass = "seo"
	RuleClassCompliance   RuleClass = "compliance"
)

// RuleSetStatus is the lifecycle stage of a RuleSet.
type RuleSetStatus string

const (
	RuleSetDraft     RuleSetStatus = "draft"
	RuleSetPublished RuleSetStatus = "published"
	RuleSetArchived  RuleSetStatus = "archived"
)

// Rule is a single proofreading check belonging to a RuleSet. Code is the
// short identifier (e.g. "GR-003") that must be unique within a RuleSet
// (§4.4.4); Pattern is the regular expression or semantic predicate the
// rule evaluates against the body text (§4.4.1).
type Rule struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Class       RuleClass `json:"class"`
	Pattern     string    `json:"pattern"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	Severity    string    `json:"severity"`
	Enabled     bool      `json:"enabled"`
}

// RuleSet is a versioned, append-only-published collection of Rules. Every
// analysis stamps the generation it ran against (§9 carry-forward decision).
type RuleSet struct {
	ID         int64         `db:"id"`
	Name       string        `db:"name"`
	Status     RuleSetStatus `db:"status"`
	Generation int64         `db:"generation"`
	Rules      []Rule        `db:"rules"`

	PublishedAt *time.Time `db:"published_at"`
	ArchivedAt  *time.Time `db:"archived_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IssueSeverity mirrors the severity a Rule assigns to what it flags.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityError    IssueSeverity = "error"
	SeverityCritical IssueSeverity = "critical"
)

// severityRank orders severities for the §4.4.1 issue-ordering tie-break:
// critical > error > warning > info. Higher rank sorts first.
var severityRank = map[IssueSeverity]int{
	SeverityCritical: 3,
	SeverityError:    2,
	SeverityWarning:  1,
	SeverityInfo:     0,
}

// SeverityRank returns this severity's sort rank (higher = more severe);
// unrecognized severities get rank 0, the same as info.
func (s IssueSeverity) SeverityRank() int {
	return severityRank[s]
}

// TextSpan is an offset range into BodyText, tracked through sanitization by
// internal/sanitize's offset table so spans survive raw->sanitized rewrites.
type TextSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ProofreadingIssue is one flagged location produced by running a RuleSet
// generation's rules against an Article.
type ProofreadingIssue struct {
	ID        int64 `db:"id"`
	ArticleID int64 `db:"article_id"`

	RuleID             string        `db:"rule_id"`
	RuleClass          RuleClass     `db:"rule_class"`
	RulesetGeneration  int64         `db:"ruleset_generation"`
	Severity           IssueSeverity `db:"severity"`

	Span        TextSpan `db:"span"`
	Excerpt     string   `db:"excerpt"`
	Explanation string   `db:"explanation"`
	Suggestion  string   `db:"suggestion"`

	// CarriedForward is true when re-analysis matched this issue to one from
	// a prior generation within the carry-forward tolerance (§9, N=20 chars).
	CarriedForward bool `db:"carried_forward"`

	CreatedAt time.Time `db:"created_at"`
}

// DecisionVerdict is the operator's disposition of a ProofreadingIssue.
type DecisionVerdict string

const (
	DecisionAccepted DecisionVerdict = "accepted"
	DecisionRejected DecisionVerdict = "rejected"
	DecisionModified DecisionVerdict = "modified"
	DecisionDeferred DecisionVerdict = "deferred"
)

// ProofreadingDecision records what an operator did with an issue.
type ProofreadingDecision struct {
	ID        int64 `db:"id"`
	IssueID   int64 `db:"issue_id"`

	Verdict      DecisionVerdict `db:"verdict"`
	ModifiedText string          `db:"modified_text"`
	OperatorID   string          `db:"operator_id"`

	// ConflictsWith holds decision IDs this decision's applied edit
	// overlaps with, if a later merge detects a span collision.
	ConflictsWith []int64 `db:"conflicts_with"`

	// Carried is true when this decision was created by carrying a prior
	// decision forward onto a recurring issue from a later re-analysis
	// (§4.4.3), rather than entered fresh by an operator.
	Carried bool `db:"carried"`

	// Archived is true once this decision's issue stopped recurring (or it
	// was carried forward onto a new decision row) and it should no longer
	// be considered by Merge.
	Archived bool `db:"archived"`

	// SupersededBy is the ID of the carried-forward decision that replaced
	// this one, set when Archived is true because the issue recurred under
	// a new generation rather than because it disappeared.
	SupersededBy *int64 `db:"superseded_by"`

	CreatedAt time.Time `db:"created_at"`
}

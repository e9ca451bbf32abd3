package models

import "time"

// PublishProvider names one of the three C6 publishing strategies.
type PublishProvider string

const (
	ProviderPlaywright  PublishProvider = "playwright"
	ProviderComputerUse PublishProvider = "computer_use"
	ProviderHybrid      PublishProvider = "hybrid"
)

// PublishTaskStatus tracks a single publish attempt's lifecycle.
type PublishTaskStatus string

const (
	PublishTaskQueued    PublishTaskStatus = "queued"
	PublishTaskRunning   PublishTaskStatus = "running"
	PublishTaskSucceeded PublishTaskStatus = "succeeded"
	PublishTaskFailed    PublishTaskStatus = "failed"
)

// PublishStep is one entry in a PublishTask's progress sink, surfaced to
// operators watching a long-running browser-automation publish.
type PublishStep struct {
	Label      string    `json:"label"`
	OccurredAt time.Time `json:"occurred_at"`
	Screenshot string    `json:"screenshot,omitempty"`
}

// PublishTask is one attempt (of up to the configured retry budget) to
// publish an Article via a provider.
type PublishTask struct {
	ID        int64 `db:"id"`
	ArticleID int64 `db:"article_id"`

	Provider PublishProvider   `db:"provider"`
	Status   PublishTaskStatus `db:"status"`
	Attempt  int               `db:"attempt"`

	Steps []PublishStep `db:"steps"`

	CMSArticleID string `db:"cms_article_id"`
	PublishedURL string `db:"published_url"`

	FailureReason string  `db:"failure_reason"`
	CostUSD       float64 `db:"cost_usd"`

	StartedAt  *time.Time `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// PublishOptions configures a single publish() call; see C6 provider
// contract in SPEC_FULL.md §4.6.
type PublishOptions struct {
	Provider      PublishProvider
	MaxAttempts   int
	ScreenshotDir string
	DryRun        bool
}

// PublishOutcome is returned by every provider's publish().
type PublishOutcome struct {
	CMSArticleID string
	PublishedURL string
	Steps        []PublishStep
	CostUSD      float64
	AdoptedDraft bool
}

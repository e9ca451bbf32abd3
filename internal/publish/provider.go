// Package publish implements C6, the publishing orchestrator: a common
// provider contract with three implementations (playwright_provider.go,
// computeruse_provider.go, hybrid_provider.go), at-most-once publishing
// via adopt-existing-draft search, and per-attempt cost/retry accounting.
// The provider-swap shape mirrors how the teacher plugin swaps its Cursor
// and GitHub clients in OnConfigurationChange based on which credentials
// are present, here generalized to an explicit strategy interface instead
// of nil-checked globals.
package publish

import (
	"context"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// ProgressSink receives PublishStep events as a provider works through a
// multi-step browser-automation publish, for operators watching live.
type ProgressSink func(models.PublishStep)

// Provider is the contract every publishing strategy implements.
type Provider interface {
	Name() models.PublishProvider
	Publish(ctx context.Context, article *models.Article, credentials map[string]string, opts models.PublishOptions, sink ProgressSink) (models.PublishOutcome, error)
}

// CMSClient is the subset of CMS operations every provider needs:
// searching for an existing draft (at-most-once guarantee) and, for the
// playwright provider, nothing further (it drives the CMS UI directly).
type CMSClient interface {
	FindDraftByTitle(ctx context.Context, title string) (cmsArticleID string, found bool, err error)
}

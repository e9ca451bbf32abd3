package publish

import (
	"context"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// HybridProvider tries PlaywrightProvider first (fast, cheap, scripted)
// and falls back to ComputerUseProvider only if the scripted flow fails,
// the same cheap-path-first/AI-fallback shape C2's Parser uses between
// its AI and heuristic strategies.
type HybridProvider struct {
	fast     Provider
	fallback Provider
}

func NewHybridProvider(fast, fallback Provider) *HybridProvider {
	return &HybridProvider{fast: fast, fallback: fallback}
}

func (p *HybridProvider) Name() models.PublishProvider { return models.ProviderHybrid }

func (p *HybridProvider) Publish(ctx context.Context, article *models.Article, credentials map[string]string, opts models.PublishOptions, sink ProgressSink) (models.PublishOutcome, error) {
	outcome, err := p.fast.Publish(ctx, article, credentials, opts, sink)
	if err == nil {
		return outcome, nil
	}

	emit(sink, "scripted_publish_failed_falling_back")
	return p.fallback.Publish(ctx, article, credentials, opts, sink)
}

package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

type fakeProvider struct {
	name    models.PublishProvider
	outcome models.PublishOutcome
	err     error
	calls   int
}

func (f *fakeProvider) Name() models.PublishProvider { return f.name }

func (f *fakeProvider) Publish(ctx context.Context, article *models.Article, credentials map[string]string, opts models.PublishOptions, sink ProgressSink) (models.PublishOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

func TestHybridProvider_UsesFastProviderWhenItSucceeds(t *testing.T) {
	fast := &fakeProvider{name: models.ProviderPlaywright, outcome: models.PublishOutcome{PublishedURL: "https://cms/1"}}
	fallback := &fakeProvider{name: models.ProviderComputerUse}

	p := NewHybridProvider(fast, fallback)
	outcome, err := p.Publish(context.Background(), &models.Article{}, nil, models.PublishOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://cms/1", outcome.PublishedURL)
	assert.Equal(t, 1, fast.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestHybridProvider_FallsBackWhenFastProviderErrors(t *testing.T) {
	fast := &fakeProvider{name: models.ProviderPlaywright, err: errors.New("scripted flow broke")}
	fallback := &fakeProvider{name: models.ProviderComputerUse, outcome: models.PublishOutcome{PublishedURL: "https://cms/2"}}

	p := NewHybridProvider(fast, fallback)
	outcome, err := p.Publish(context.Background(), &models.Article{}, nil, models.PublishOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "https://cms/2", outcome.PublishedURL)
	assert.Equal(t, 1, fast.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestHybridProvider_PropagatesFallbackError(t *testing.T) {
	fast := &fakeProvider{name: models.ProviderPlaywright, err: errors.New("scripted flow broke")}
	fallback := &fakeProvider{name: models.ProviderComputerUse, err: errors.New("computer use also failed")}

	p := NewHybridProvider(fast, fallback)
	_, err := p.Publish(context.Background(), &models.Article{}, nil, models.PublishOptions{}, nil)
	assert.Error(t, err)
}

func TestHybridProvider_Name(t *testing.T) {
	p := NewHybridProvider(&fakeProvider{}, &fakeProvider{})
	assert.Equal(t, models.ProviderHybrid, p.Name())
}

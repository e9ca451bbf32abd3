package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// PlaywrightProvider publishes by driving the CMS's web editor directly
// with scripted playwright actions: log in, fill the title and body fields,
// click publish. Images are not uploaded. It never consults an LLM, so it is the cheapest and
// fastest provider but the most brittle to CMS UI changes.
type PlaywrightProvider struct {
	pw        *playwright.Playwright
	cms       CMSClient
	loginURL  string
	editorURL string
}

func NewPlaywrightProvider(pw *playwright.Playwright, cms CMSClient, loginURL, editorURL string) *PlaywrightProvider {
	return &PlaywrightProvider{pw: pw, cms: cms, loginURL: loginURL, editorURL: editorURL}
}

func (p *PlaywrightProvider) Name() models.PublishProvider { return models.ProviderPlaywright }

func (p *PlaywrightProvider) Publish(ctx context.Context, article *models.Article, credentials map[string]string, opts models.PublishOptions, sink ProgressSink) (models.PublishOutcome, error) {
	if existingID, found, err := p.cms.FindDraftByTitle(ctx, article.TitleMain); err == nil && found {
		emit(sink, "adopted existing draft")
		return models.PublishOutcome{CMSArticleID: existingID, AdoptedDraft: true}, nil
	}

	browser, err := p.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.DryRun),
	})
	if err != nil {
		return models.PublishOutcome{}, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return models.PublishOutcome{}, fmt.Errorf("new page: %w", err)
	}

	var steps []models.PublishStep
	record := func(label string) {
		step := models.PublishStep{Label: label, OccurredAt: time.Now()}
		if opts.ScreenshotDir != "" {
			path := fmt.Sprintf("%s/%d-%s.png", opts.ScreenshotDir, article.ID, label)
			if _, err := page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err == nil {
				step.Screenshot = path
			}
		}
		steps = append(steps, step)
		emit(sink, label)
	}

	if _, err := page.Goto(p.loginURL); err != nil {
		return models.PublishOutcome{}, fmt.Errorf("goto login: %w", err)
	}
	if err := page.Locator("#username").Fill(credentials["username"]); err != nil {
		return models.PublishOutcome{}, err
	}
	if err := page.Locator("#password").Fill(credentials["password"]); err != nil {
		return models.PublishOutcome{}, err
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		return models.PublishOutcome{}, err
	}
	record("logged_in")

	if _, err := page.Goto(p.editorURL); err != nil {
		return models.PublishOutcome{}, fmt.Errorf("goto editor: %w", err)
	}
	if err := page.Locator("#title").Fill(article.TitleMain); err != nil {
		return models.PublishOutcome{}, err
	}
	if err := page.Locator("#body").Fill(article.BodyHTML); err != nil {
		return models.PublishOutcome{}, err
	}
	record("filled_editor")

	if opts.DryRun {
		record("dry_run_stop")
		return models.PublishOutcome{Steps: steps}, nil
	}

	if err := page.Locator("#publish").Click(); err != nil {
		return models.PublishOutcome{}, err
	}
	record("published")

	url, err := page.Locator("#published-url").TextContent()
	if err != nil {
		url = ""
	}

	return models.PublishOutcome{PublishedURL: url, Steps: steps}, nil
}

func emit(sink ProgressSink, label string) {
	if sink != nil {
		sink(models.PublishStep{Label: label, OccurredAt: time.Now()})
	}
}

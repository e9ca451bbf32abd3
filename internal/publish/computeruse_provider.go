package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/playwright-community/playwright-go"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// ComputerUseProvider publishes by handing an anthropic-sdk-go
// computer-use-beta tool loop control of a playwright page: the model
// looks at screenshots and issues click/type/key actions until it
// reports the publish flow complete. This tolerates CMS UI changes the
// scripted PlaywrightProvider would break on, at the cost of per-publish
// LLM spend.
type ComputerUseProvider struct {
	sdk          anthropic.Client
	pw           *playwright.Playwright
	cms          CMSClient
	model        anthropic.Model
	maxTurns     int
	displayWidth int
	displayHeight int
}

func NewComputerUseProvider(apiKey string, pw *playwright.Playwright, cms CMSClient) *ComputerUseProvider {
	return &ComputerUseProvider{
		sdk:           anthropic.NewClient(option.WithAPIKey(apiKey)),
		pw:            pw,
		cms:           cms,
		model:         anthropic.ModelClaudeSonnet4_5,
		maxTurns:      25,
		displayWidth:  1280,
		displayHeight: 800,
	}
}

func (p *ComputerUseProvider) Name() models.PublishProvider { return models.ProviderComputerUse }

func (p *ComputerUseProvider) Publish(ctx context.Context, article *models.Article, credentials map[string]string, opts models.PublishOptions, sink ProgressSink) (models.PublishOutcome, error) {
	if existingID, found, err := p.cms.FindDraftByTitle(ctx, article.TitleMain); err == nil && found {
		emit(sink, "adopted existing draft")
		return models.PublishOutcome{CMSArticleID: existingID, AdoptedDraft: true}, nil
	}

	browser, err := p.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		return models.PublishOutcome{}, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: p.displayWidth, Height: p.displayHeight},
	})
	if err != nil {
		return models.PublishOutcome{}, fmt.Errorf("new page: %w", err)
	}

	instructions := fmt.Sprintf(
		"You are operating a browser to publish an article titled %q to the CMS. "+
			"Credentials: username=%s. Navigate the editor, paste the body, and click publish. "+
			"Report the published URL in your final message.",
		article.TitleMain, credentials["username"])

	messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(instructions))}

	var steps []models.PublishStep
	var totalCost float64
	var publishedURL string

	for turn := 0; turn < p.maxTurns; turn++ {
		msg, err := p.sdk.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     p.model,
			MaxTokens: 2048,
			Messages:  messages,
			Tools: []anthropic.ToolUnionParam{
				{OfComputerUseTool20250124: &anthropic.ToolComputerUse20250124Param{
					DisplayWidthPx:  int64(p.displayWidth),
					DisplayHeightPx: int64(p.displayHeight),
				}},
			},
		})
		if err != nil {
			return models.PublishOutcome{}, fmt.Errorf("computer-use turn %d: %w", turn, err)
		}
		totalCost += estimateTurnCost(msg.Usage.InputTokens, msg.Usage.OutputTokens)

		toolUse, done, finalText := extractComputerUseAction(msg)
		label := fmt.Sprintf("turn_%d", turn)
		if shot, shotErr := page.Screenshot(); shotErr == nil {
			path := fmt.Sprintf("%s/%d-%s.png", opts.ScreenshotDir, article.ID, label)
			_ = writeScreenshot(path, shot)
			steps = append(steps, models.PublishStep{Label: label, OccurredAt: time.Now(), Screenshot: path})
		}
		emit(sink, label)

		if done {
			publishedURL = extractURL(finalText)
			break
		}
		if toolUse == nil {
			break
		}

		if err := applyComputerAction(page, toolUse); err != nil {
			return models.PublishOutcome{}, fmt.Errorf("apply computer action: %w", err)
		}

		messages = append(messages, anthropic.NewAssistantMessage(msg.Content...))
		messages = append(messages, nextTurnMessage(page))
	}

	return models.PublishOutcome{PublishedURL: publishedURL, Steps: steps, CostUSD: totalCost}, nil
}

func estimateTurnCost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*3.0 + float64(outputTokens)/1_000_000*15.0
}

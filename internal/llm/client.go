// Package llm wraps anthropics/anthropic-sdk-go behind a narrow interface
// used by C2 (parsing strategy A), C3 (optimization), and C6's computer-use
// publishing provider. Retries follow internal/retry's generalization of
// server/cursor/client.go's doRequest backoff loop; classification treats
// rate-limit and 5xx-shaped SDK errors as retryable and everything else
// (bad request, auth) as permanent.
package llm

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/retry"
)

// Client is the narrow surface the rest of the pipeline depends on,
// letting tests substitute a fake without touching the SDK.
type Client interface {
	// Complete sends a single-turn prompt and returns the concatenated text
	// of its text blocks, the tool input if a tool was requested, and the
	// USD cost computed from token usage.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single LLM call's parameters.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int64
	// ToolName, when non-empty, forces the model to emit a single call to
	// that tool, with input matching ToolSchema, rather than free text (used by C3's
	// structured optimization output and C2 strategy A's parse output).
	ToolName   string
	ToolSchema map[string]any
}

// CompletionResult is what the caller needs back from a completion.
type CompletionResult struct {
	Text     string
	ToolInput []byte // raw JSON tool_use input, if ToolName was set
	CostUSD  float64
	Model    string
}

type anthropicClient struct {
	sdk         anthropic.Client
	model       anthropic.Model
	retryPolicy retry.Policy
}

// pricePerMillion is the USD rate table used to turn token usage into a
// cost estimate for the per-article cost cap (§4.3, §7 ErrCostCapExceeded).
// Values are indicative list prices, not a live pricing feed.
var pricePerMillion = map[string][2]float64{
	"claude-sonnet-4-5": {3.0, 15.0}, // {input, output}
	"claude-opus-4-1":   {15.0, 75.0},
	"claude-haiku-4-5":  {0.8, 4.0},
}

// New builds a Client for the given API key and model name.
func New(apiKey, model string) Client {
	return &anthropicClient{
		sdk:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       anthropic.Model(model),
		retryPolicy: retry.Default(),
	}
}

func (c *anthropicClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.ToolName != "" {
		params.Tools = []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        req.ToolName,
					InputSchema: toInputSchema(req.ToolSchema),
				},
			},
		}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolName},
		}
	}

	var result CompletionResult
	classify := func(err error) retry.Classification {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
				return retry.Retryable
			}
			return retry.Permanent
		}
		return retry.Retryable
	}

	err := retry.Do(ctx, c.retryPolicy, classify, func(ctx context.Context, attempt int) error {
		msg, err := c.sdk.Messages.New(ctx, params)
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode != 429 && apiErr.StatusCode < 500 {
				return err
			}
			return errors.Wrap(models.ErrTransientExternal, err.Error())
		}

		result = CompletionResult{
			Model:   string(msg.Model),
			CostUSD: estimateCost(string(msg.Model), msg.Usage.InputTokens, msg.Usage.OutputTokens),
		}
		for _, block := range msg.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				result.Text += variant.Text
			case anthropic.ToolUseBlock:
				result.ToolInput = variant.Input
			}
		}
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

func estimateCost(model string, inputTokens, outputTokens int64) float64 {
	rate, ok := pricePerMillion[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*rate[0] + float64(outputTokens)/1_000_000*rate[1]
}

func toInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
		Required:   toStringSlice(schema["required"]),
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]string)
	if ok {
		return raw
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// NewWithTimeout is a convenience constructor for call sites that want a
// per-request deadline distinct from the caller's context (the optimization
// engine's unified call budget, §4.3).
func NewWithTimeout(apiKey, model string, timeout time.Duration) Client {
	c := New(apiKey, model).(*anthropicClient)
	c.sdk = anthropic.NewClient(option.WithAPIKey(apiKey), option.WithRequestTimeout(timeout))
	return c
}

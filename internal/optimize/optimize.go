// Package optimize implements C3, the optimization engine: a single
// unified AI call per article that proposes titles, meta description, SEO
// keywords, and FAQ content, subject to a per-article cost cap and with
// concurrent calls for the same article collapsed into one in-flight
// request (inflight.go). The single-call-per-resource shape mirrors how
// server/reviewloop.go's ensureReviewLoop makes workflow bootstrapping
// idempotent under concurrent triggers.
package optimize

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Output is the unified AI call's parsed result.
type Output struct {
	TitleSets       []models.TitleVariant
	MetaDescription string
	SEOKeywords     models.SEOKeywords
	FAQs            []models.FAQProposal
	CostUSD         float64
	Model           string
}

var optimizeToolSchema = map[string]any{
	"properties": map[string]any{
		"title_sets":       map[string]any{"type": "array"},
		"meta_description": map[string]any{"type": "string"},
		"seo_keywords":      map[string]any{"type": "object"},
		"faqs":              map[string]any{"type": "array"},
	},
	"required": []string{"title_sets", "meta_description", "seo_keywords"},
}

type toolOutput struct {
	TitleSets       []models.TitleVariant `json:"title_sets"`
	MetaDescription string                `json:"meta_description"`
	SEOKeywords     models.SEOKeywords    `json:"seo_keywords"`
	FAQs            []models.FAQProposal  `json:"faqs"`
}

// Engine runs the unified optimization call, enforcing a per-article cost
// cap and collapsing concurrent calls for the same article ID.
type Engine struct {
	llmClient   llm.Client
	costCapUSD  float64
	inflight    *inflightGroup
}

func New(llmClient llm.Client, costCapUSD float64) *Engine {
	return &Engine{
		llmClient:  llmClient,
		costCapUSD: costCapUSD,
		inflight:   newInflightGroup(),
	}
}

// Optimize runs (or joins an in-flight run of) the unified call for
// articleID, built from bodyText. Every concurrent caller for the same
// articleID receives the same Output and the same error.
func (e *Engine) Optimize(ctx context.Context, articleID int64, title, bodyText string) (Output, error) {
	v, err, _ := e.inflight.Do(articleID, func() (any, error) {
		return e.runOptimization(ctx, title, bodyText)
	})
	if err != nil {
		return Output{}, err
	}
	return v.(Output), nil
}

func (e *Engine) runOptimization(ctx context.Context, title, bodyText string) (Output, error) {
	completion, err := e.llmClient.Complete(ctx, llm.CompletionRequest{
		System: "Propose 3 title variants (prefix/main/suffix), a meta description under 160 " +
			"characters, tiered SEO keywords, and up to 5 FAQ entries for this article.",
		Prompt:     "Title: " + title + "\n\n" + bodyText,
		ToolName:   "optimize_article",
		ToolSchema: optimizeToolSchema,
	})
	if err != nil {
		return Output{}, errors.Wrap(err, "optimization call")
	}

	if e.costCapUSD > 0 && completion.CostUSD > e.costCapUSD {
		return Output{}, errors.Wrapf(models.ErrCostCapExceeded,
			"optimization call cost $%.4f exceeds cap $%.4f", completion.CostUSD, e.costCapUSD)
	}

	var out toolOutput
	if err := json.Unmarshal(completion.ToolInput, &out); err != nil {
		return Output{}, errors.Wrap(models.ErrInvalidUpstreamData, err.Error())
	}
	for _, tv := range out.TitleSets {
		if tv.Concatenation() == "" {
			return Output{}, errors.Wrap(models.ErrInvalidUpstreamData, "title set with empty concatenation")
		}
	}

	return Output{
		TitleSets:       out.TitleSets,
		MetaDescription: out.MetaDescription,
		SEOKeywords:     out.SEOKeywords,
		FAQs:            out.FAQs,
		CostUSD:         completion.CostUSD,
		Model:           completion.Model,
	}, nil
}

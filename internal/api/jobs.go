package api

import (
	"context"

	"github.com/fieldnotes/articlepipeline/internal/models"
	"github.com/fieldnotes/articlepipeline/internal/parser"
)

// RunParse is the orchestrator job body for C2: parse the item's raw HTML,
// create its Article, link it back to the WorklistItem, and advance the
// item to parsing_review for operator confirmation (§4.1/§4.5.1 - parsing
// never auto-advances past review, confirmation always requires a human;
// neither this job nor its callers read AutoProcessFlag).
// Exported so main can hand it to the Orchestrator as the sync job's
// auto-parse hook, wired after both are constructed.
func (s *Server) RunParse(ctx context.Context, itemID int64) error {
	item, err := s.Store.Worklist.Get(ctx, itemID)
	if err != nil {
		return err
	}

	p := parser.New(s.LLMClient)
	result, err := p.Parse(ctx, item.RawHTML)
	if err != nil {
		return s.Orchestrator.Fail(ctx, itemID, err)
	}

	article := &models.Article{
		WorklistItemID:    &itemID,
		TitlePrefix:       result.TitlePrefix,
		TitleMain:         result.TitleMain,
		TitleSuffix:       result.TitleSuffix,
		AuthorName:        result.AuthorName,
		BodyHTML:          result.BodyHTML,
		BodyText:          result.BodyText,
		MetaDescription:   result.MetaDescription,
		SEOKeywords:       result.SEOKeywords,
		ParsingMethod:     result.Method,
		ParsingConfidence: result.Confidence,
		Status:            models.ArticleStatusDraft,
	}
	if err := s.Store.Articles.Insert(ctx, article); err != nil {
		return err
	}
	for i := range result.Images {
		result.Images[i].ArticleID = article.ID
		if err := s.Store.Articles.InsertImage(ctx, &result.Images[i]); err != nil {
			return err
		}
	}

	if err := s.Store.Worklist.LinkArticle(ctx, itemID, article.ID); err != nil {
		return err
	}

	return s.Orchestrator.Transition(ctx, itemID, models.StatusParsingReview)
}

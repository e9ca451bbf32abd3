package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// ArticleRepository persists models.Article and models.ArticleImage.
type ArticleRepository struct {
	pool *pgxpool.Pool
}

func (r *ArticleRepository) Insert(ctx context.Context, a *models.Article) error {
	titleSets, err := json.Marshal(a.SuggestedTitleSets)
	if err != nil {
		return err
	}
	seoKeywords, err := json.Marshal(a.SuggestedSEOKeywords)
	if err != nil {
		return err
	}
	faqs, err := json.Marshal(a.FAQProposals)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, `
		insert into articles
			(worklist_item_id, title_prefix, title_main, title_suffix, author_name,
			 body_html, body_text, meta_description, seo_keywords, tags, categories,
			 suggested_title_sets, suggested_meta_description, suggested_seo_keywords,
			 faq_proposals, parsing_method, parsing_confidence, status,
			 ai_model_used, generation_cost_usd)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		returning id, created_at, updated_at`,
		a.WorklistItemID, a.TitlePrefix, a.TitleMain, a.TitleSuffix, a.AuthorName,
		a.BodyHTML, a.BodyText, a.MetaDescription, a.SEOKeywords, a.Tags, a.Categories,
		titleSets, a.SuggestedMetaDescription, seoKeywords,
		faqs, a.ParsingMethod, a.ParsingConfidence, a.Status,
		a.AIModelUsed, a.GenerationCostUSD,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *ArticleRepository) Get(ctx context.Context, id int64) (*models.Article, error) {
	row := r.pool.QueryRow(ctx, `
		select id, worklist_item_id, title_prefix, title_main, title_suffix, author_name,
		       body_html, body_text, meta_description, seo_keywords, tags, categories,
		       suggested_title_sets, suggested_meta_description, suggested_seo_keywords,
		       faq_proposals, parsing_method, parsing_confidence, parsing_confirmed,
		       parsing_confirmed_by, parsing_confirmed_at, cms_article_id, published_url,
		       published_at, status, ai_model_used, generation_cost_usd,
		       latest_ruleset_generation, created_at, updated_at
		from articles where id = $1`, id)
	return scanArticle(row)
}

func (r *ArticleRepository) ConfirmParsing(ctx context.Context, id int64, operator string) error {
	_, err := r.pool.Exec(ctx, `
		update articles set parsing_confirmed = true, parsing_confirmed_by = $1,
		       parsing_confirmed_at = now(), updated_at = now()
		where id = $2`, operator, id)
	return err
}

func (r *ArticleRepository) UpdateStatus(ctx context.Context, id int64, status models.ArticleStatus) error {
	_, err := r.pool.Exec(ctx, `update articles set status = $1, updated_at = now() where id = $2`, status, id)
	return err
}

func (r *ArticleRepository) UpdateBody(ctx context.Context, id int64, bodyHTML, bodyText string) error {
	_, err := r.pool.Exec(ctx, `
		update articles set body_html = $1, body_text = $2, updated_at = now() where id = $3`,
		bodyHTML, bodyText, id)
	return err
}

func (r *ArticleRepository) InsertImage(ctx context.Context, img *models.ArticleImage) error {
	reviewJSON, err := json.Marshal(img.Review)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		insert into article_images
			(article_id, position, source_url, preview_path, source_path, caption,
			 width, height, file_size_bytes, format, review)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		returning id, created_at`,
		img.ArticleID, img.Position, img.SourceURL, img.PreviewPath, img.SourcePath, img.Caption,
		img.Width, img.Height, img.FileSizeBytes, img.Format, reviewJSON,
	).Scan(&img.ID, &img.CreatedAt)
}

func scanArticle(row scannable) (*models.Article, error) {
	var a models.Article
	var titleSets, seoKeywords, faqs []byte
	err := row.Scan(&a.ID, &a.WorklistItemID, &a.TitlePrefix, &a.TitleMain, &a.TitleSuffix, &a.AuthorName,
		&a.BodyHTML, &a.BodyText, &a.MetaDescription, &a.SEOKeywords, &a.Tags, &a.Categories,
		&titleSets, &a.SuggestedMetaDescription, &seoKeywords,
		&faqs, &a.ParsingMethod, &a.ParsingConfidence, &a.ParsingConfirmed,
		&a.ParsingConfirmedBy, &a.ParsingConfirmedAt, &a.CMSArticleID, &a.PublishedURL,
		&a.PublishedAt, &a.Status, &a.AIModelUsed, &a.GenerationCostUSD,
		&a.LatestRulesetGeneration, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(titleSets, &a.SuggestedTitleSets); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seoKeywords, &a.SuggestedSEOKeywords); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(faqs, &a.FAQProposals); err != nil {
		return nil, err
	}
	return &a, nil
}

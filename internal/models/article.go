package models

import "time"

// ParsingMethod records which C2 strategy produced an Article.
type ParsingMethod string

const (
	ParsingMethodAI        ParsingMethod = "ai"
	ParsingMethodHeuristic ParsingMethod = "heuristic"
)

// ArticleStatus is the workflow-scoped publication status carried on the
// Article itself (distinct from WorklistStatus, which drives the pipeline).
type ArticleStatus string

const (
	ArticleStatusDraft          ArticleStatus = "draft"
	ArticleStatusInReview       ArticleStatus = "in-review"
	ArticleStatusReadyToPublish ArticleStatus = "ready-to-publish"
	ArticleStatusPublishing     ArticleStatus = "publishing"
	ArticleStatusPublished      ArticleStatus = "published"
	ArticleStatusFailed         ArticleStatus = "failed"
)

// TitleVariant is a single AI-suggested (or AI-parsed) title candidate.
type TitleVariant struct {
	Prefix     string  `json:"prefix,omitempty"`
	Main       string  `json:"main"`
	Suffix     string  `json:"suffix,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Concatenation is prefix+main+suffix, used by the "non-empty" invariant.
func (t TitleVariant) Concatenation() string {
	return t.Prefix + t.Main + t.Suffix
}

// SEOKeywords is the tiered keyword suggestion shape from C3.
type SEOKeywords struct {
	Focus     string   `json:"focus"`
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// FAQProposal is one AI-generated FAQ entry.
type FAQProposal struct {
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	QuestionType string  `json:"question_type,omitempty"`
	SearchIntent string  `json:"search_intent,omitempty"`
	AIConfidence float64 `json:"ai_confidence,omitempty"`
}

// Article is the parsed/optimized content, at most one per WorklistItem.
type Article struct {
	ID                 int64  `db:"id"`
	WorklistItemID      *int64 `db:"worklist_item_id"`

	TitlePrefix string `db:"title_prefix"`
	TitleMain   string `db:"title_main"`
	TitleSuffix string `db:"title_suffix"`
	AuthorName  string `db:"author_name"`

	BodyHTML string `db:"body_html"`
	BodyText string `db:"body_text"`

	MetaDescription string   `db:"meta_description"`
	SEOKeywords     []string `db:"seo_keywords"`
	Tags            []string `db:"tags"`
	Categories      []string `db:"categories"`

	SuggestedTitleSets      []TitleVariant `db:"suggested_title_sets"`
	SuggestedMetaDescription string        `db:"suggested_meta_description"`
	SuggestedSEOKeywords     SEOKeywords   `db:"suggested_seo_keywords"`
	FAQProposals             []FAQProposal `db:"faq_proposals"`

	ParsingMethod      ParsingMethod `db:"parsing_method"`
	ParsingConfidence  float64       `db:"parsing_confidence"`
	ParsingConfirmed   bool          `db:"parsing_confirmed"`
	ParsingConfirmedBy string        `db:"parsing_confirmed_by"`
	ParsingConfirmedAt *time.Time    `db:"parsing_confirmed_at"`

	CMSArticleID  string     `db:"cms_article_id"`
	PublishedURL  string     `db:"published_url"`
	PublishedAt   *time.Time `db:"published_at"`
	Status        ArticleStatus `db:"status"`

	AIModelUsed       string  `db:"ai_model_used"`
	GenerationCostUSD float64 `db:"generation_cost_usd"`

	// LatestRulesetGeneration mirrors the ruleset_generation stamped on the
	// most recent ProofreadingIssue set analyzed for this article (§6).
	LatestRulesetGeneration int64 `db:"latest_ruleset_generation"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ImageReviewAction is an operator's decision on one ArticleImage.
type ImageReviewAction string

const (
	ImageReviewKeep            ImageReviewAction = "keep"
	ImageReviewRemove          ImageReviewAction = "remove"
	ImageReviewReplaceCaption  ImageReviewAction = "replace_caption"
	ImageReviewReplaceSource   ImageReviewAction = "replace_source"
)

type ImageReview struct {
	Action   ImageReviewAction `json:"action"`
	NewValue string            `json:"new_value,omitempty"`
	Notes    string            `json:"notes,omitempty"`
}

// ArticleImage is one extracted image reference, ArticleID+Position unique.
type ArticleImage struct {
	ID        int64 `db:"id"`
	ArticleID int64 `db:"article_id"`
	Position  int   `db:"position"`

	SourceURL    string `db:"source_url"`
	PreviewPath  string `db:"preview_path"`
	SourcePath   string `db:"source_path"`
	Caption      string `db:"caption"`

	Width         int    `db:"width"`
	Height        int    `db:"height"`
	FileSizeBytes int64  `db:"file_size_bytes"`
	Format        string `db:"format"`

	Review *ImageReview `db:"review"`

	CreatedAt time.Time `db:"created_at"`
}

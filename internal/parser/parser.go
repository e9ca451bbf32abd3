// Package parser implements C2, the document parser: an AI-primary
// strategy backed by a regex/tree-walking heuristic fallback, grounded on
// server/parser/parser.go's regex-driven extraction idiom applied here to
// HTML structure instead of chat-mention syntax.
package parser

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Result is what either strategy produces: enough to populate a new
// Article plus the confidence/method metadata for the parsing_review gate.
type Result struct {
	TitlePrefix, TitleMain, TitleSuffix string
	AuthorName                         string
	BodyHTML, BodyText                 string
	MetaDescription                    string
	SEOKeywords                        []string
	Images                             []models.ArticleImage
	Method                             models.ParsingMethod
	Confidence                         float64
}

// aiDeclaredConfidence and heuristicDeclaredConfidence are the fixed
// confidence values each strategy reports on success (§4.2): these are
// declared, not measured — Strategy A's self-reported score is never used
// for anything (there is no confidence-threshold gate in the fallback
// policy below).
const (
	aiDeclaredConfidence        = 0.95
	heuristicDeclaredConfidence = 0.70
)

// minBodyBytes is the Strategy-A→B fallback threshold: a body_html shorter
// than this is treated as a parse failure (§4.2, §8 "exactly 100 bytes
// long succeeds").
const minBodyBytes = 100

var parseToolSchema = map[string]any{
	"properties": map[string]any{
		"title_prefix": map[string]any{"type": "string"},
		"title_main":   map[string]any{"type": "string"},
		"title_suffix": map[string]any{"type": "string"},
		"author_name":  map[string]any{"type": "string"},
		"body_html":    map[string]any{"type": "string"},
		"confidence":   map[string]any{"type": "number"},
	},
	"required": []string{"title_main", "body_html", "confidence"},
}

type aiToolOutput struct {
	TitlePrefix string  `json:"title_prefix"`
	TitleMain   string  `json:"title_main"`
	TitleSuffix string  `json:"title_suffix"`
	AuthorName  string  `json:"author_name"`
	BodyHTML    string  `json:"body_html"`
	Confidence  float64 `json:"confidence"`
}

// Parser runs strategy A (AI) and falls back to strategy B (heuristic)
// when the AI call fails or its output fails the checks in Parse.
type Parser struct {
	llmClient llm.Client
}

func New(llmClient llm.Client) *Parser {
	return &Parser{llmClient: llmClient}
}

// Parse is idempotent: called twice on the same rawHTML it produces the
// same Result, since neither strategy has hidden state keyed by call count.
//
// Fallback policy (§4.2): Strategy A is attempted first; Strategy B runs on
// any of network error, model-output schema violation, empty title_main, or
// body_html shorter than minBodyBytes. There is no confidence-threshold
// gate — Strategy A's declared 0.95 is reported, never compared against a
// cutoff.
func (p *Parser) Parse(ctx context.Context, rawHTML string) (Result, error) {
	if p.llmClient != nil {
		result, err := p.parseWithAI(ctx, rawHTML)
		if err == nil && result.TitleMain != "" && len(result.BodyHTML) >= minBodyBytes {
			return result, nil
		}
	}
	return p.parseHeuristic(rawHTML), nil
}

func (p *Parser) parseWithAI(ctx context.Context, rawHTML string) (Result, error) {
	completion, err := p.llmClient.Complete(ctx, llm.CompletionRequest{
		System: "Extract the article title (with any site prefix/suffix split out), " +
			"author, and body HTML from this raw document. Report your confidence 0-1.",
		Prompt:     rawHTML,
		ToolName:   "extract_article",
		ToolSchema: parseToolSchema,
	})
	if err != nil {
		// Network error trigger.
		return Result{}, errors.Wrap(err, "ai parse: network error")
	}

	var out aiToolOutput
	if err := json.Unmarshal(completion.ToolInput, &out); err != nil {
		// Model-output schema violation trigger.
		return Result{}, errors.Wrap(models.ErrInvalidUpstreamData, "ai parse: schema violation: "+err.Error())
	}

	return Result{
		TitlePrefix:     out.TitlePrefix,
		TitleMain:       out.TitleMain,
		TitleSuffix:     out.TitleSuffix,
		AuthorName:      out.AuthorName,
		BodyHTML:        out.BodyHTML,
		BodyText:        stripTags(out.BodyHTML),
		MetaDescription: truncateDescription(firstParagraphAtLeast(extractParagraphs(out.BodyHTML), 10)),
		SEOKeywords:     topKeywords(stripTags(out.BodyHTML), 10),
		Images:          extractImagesHeuristic(out.BodyHTML),
		Method:          models.ParsingMethodAI,
		Confidence:      aiDeclaredConfidence,
	}, nil
}

var (
	titleTagRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1TagRe      = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	titleSepRe      = regexp.MustCompile(`\s*[:\-—─]\s*`)
	bracketPrefixRe = regexp.MustCompile(`^\s*(【[^】]*】)\s*`)
	authorMetaRe    = regexp.MustCompile(`(?is)<meta[^>]*name=["']author["'][^>]*content=["']([^"']+)["']`)
	articleTagRe    = regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`)

	// Author line-scan patterns (§4.2 Strategy B). 文/<name> and 作者：<name>
	// are the CJK bylines; "By <name>" is the Western equivalent.
	authorWenRe    = regexp.MustCompile(`文\s*/\s*(\S.*)`)
	authorZuozheRe = regexp.MustCompile(`作者\s*[:：]\s*(\S.*)`)
	authorByRe     = regexp.MustCompile(`(?i)^\s*by\s+(\S.*)$`)

	structuralStripRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<style[^>]*>.*?</style>|` +
		`<nav[^>]*>.*?</nav>|<header[^>]*>.*?</header>|<footer[^>]*>.*?</footer>|<iframe[^>]*>.*?</iframe>`)

	paragraphRe   = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	figureRe      = regexp.MustCompile(`(?is)<figure[^>]*>(.*?)</figure>`)
	figcaptionRe  = regexp.MustCompile(`(?is)<figcaption[^>]*>(.*?)</figcaption>`)
	altAttrRe     = regexp.MustCompile(`(?is)\balt=["']([^"']*)["']`)
	titleAttrRe   = regexp.MustCompile(`(?is)\btitle=["']([^"']*)["']`)
	metaTokenRe   = regexp.MustCompile(`^[0-9:/,.\-]+$`)
)

var metadataWords = map[string]bool{
	"posted": true, "by": true, "views": true, "comments": true,
	"category": true, "categories": true, "tags": true, "author": true,
	"published": true, "updated": true, "filed": true, "under": true,
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "this": true, "that": true, "these": true,
	"those": true, "it": true, "as": true, "from": true, "has": true,
	"have": true, "had": true, "not": true, "no": true, "its": true,
	"their": true, "they": true, "he": true, "she": true, "we": true,
	"you": true, "i": true, "will": true, "can": true, "about": true,
	"into": true, "than": true, "then": true, "also": true, "more": true,
}

// parseHeuristic is strategy B: no AI call, pure regex/tag extraction
// implementing every §4.2 Strategy-B policy (title, author, body,
// SEO synthesis, images). Confidence is the fixed declared value; it never
// inspects semantic content, only document structure.
func (p *Parser) parseHeuristic(rawHTML string) Result {
	cleaned := structuralStripRe.ReplaceAllString(rawHTML, "")

	body := firstMatch(articleTagRe, cleaned)
	bodyHTML := body
	if bodyHTML == "" {
		bodyHTML = cleaned
	}
	bodyHTML = dropLeadingMetadataParagraph(bodyHTML)

	titleMain, titleSuffix, titlePrefix := extractTitleHeuristic(cleaned)
	author := extractAuthorHeuristic(rawHTML)
	paragraphs := extractParagraphs(bodyHTML)
	bodyText := stripTags(bodyHTML)

	return Result{
		TitlePrefix:     titlePrefix,
		TitleMain:       strings.TrimSpace(titleMain),
		TitleSuffix:     strings.TrimSpace(titleSuffix),
		AuthorName:      strings.TrimSpace(author),
		BodyHTML:        bodyHTML,
		BodyText:        bodyText,
		MetaDescription: truncateDescription(firstParagraphAtLeast(paragraphs, 10)),
		SEOKeywords:     topKeywords(bodyText, 10),
		Images:          extractImagesHeuristic(bodyHTML),
		Method:          models.ParsingMethodHeuristic,
		Confidence:      heuristicDeclaredConfidence,
	}
}

// extractTitleHeuristic prefers the first <h1>, falling back to the first
// substantive paragraph (10-200 chars), then splits any bracketed prefix
// and separator per §4.2.
func extractTitleHeuristic(cleaned string) (main, suffix, prefix string) {
	title := firstMatch(h1TagRe, cleaned)
	if title == "" {
		title = firstMatch(titleTagRe, cleaned)
	}
	if title == "" {
		title = firstParagraphInRange(extractParagraphs(cleaned), 10, 200)
	}
	return splitTitle(title)
}

// splitTitle divides "【Prefix】Main - Site Name" into (main, suffix, prefix),
// recognizing a leading bracketed prefix and any of the §4.2 separators.
func splitTitle(title string) (string, string, string) {
	var prefix string
	if m := bracketPrefixRe.FindStringSubmatch(title); m != nil {
		prefix = m[1]
		title = title[len(m[0]):]
	}
	parts := titleSepRe.Split(title, 2)
	if len(parts) == 2 {
		return parts[0], parts[1], prefix
	}
	return title, "", prefix
}

// extractAuthorHeuristic scans document lines for the §4.2 byline patterns
// before falling back to a <meta name=author> tag.
func extractAuthorHeuristic(rawHTML string) string {
	for _, line := range strings.Split(rawHTML, "\n") {
		text := strings.TrimSpace(stripTags(line))
		if text == "" {
			continue
		}
		if m := authorWenRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := authorZuozheRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := authorByRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return firstMatch(authorMetaRe, rawHTML)
}

// dropLeadingMetadataParagraph removes the body's first paragraph when it
// looks like metadata (byline/date/view-count cruft) rather than body text
// (§4.2: ">50% non-body-text tokens").
func dropLeadingMetadataParagraph(bodyHTML string) string {
	loc := paragraphRe.FindStringSubmatchIndex(bodyHTML)
	if loc == nil {
		return bodyHTML
	}
	text := stripTags(bodyHTML[loc[2]:loc[3]])
	if !isMetadataParagraph(text) {
		return bodyHTML
	}
	return bodyHTML[:loc[0]] + bodyHTML[loc[1]:]
}

func isMetadataParagraph(text string) bool {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return false
	}
	nonBody := 0
	for _, tok := range tokens {
		lower := strings.ToLower(strings.Trim(tok, ".,;:()"))
		if metaTokenRe.MatchString(tok) || metadataWords[lower] {
			nonBody++
		}
	}
	return float64(nonBody)/float64(len(tokens)) > 0.5
}

func extractParagraphs(fragment string) []string {
	matches := paragraphRe.FindAllStringSubmatch(fragment, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(stripTags(m[1])))
	}
	return out
}

// firstParagraphInRange returns the first paragraph whose length falls
// within [min, max] chars, or "" if none qualify.
func firstParagraphInRange(paragraphs []string, min, max int) string {
	for _, p := range paragraphs {
		if len(p) >= min && len(p) <= max {
			return p
		}
	}
	return ""
}

// firstParagraphAtLeast returns the first paragraph at least min chars
// long, used as the meta_description source (no upper bound; truncation
// happens separately).
func firstParagraphAtLeast(paragraphs []string, min int) string {
	for _, p := range paragraphs {
		if len(p) >= min {
			return p
		}
	}
	if len(paragraphs) > 0 {
		return paragraphs[0]
	}
	return ""
}

// truncateDescription cuts text to the 150-160 char meta_description
// window (§4.2), preferring a word boundary.
func truncateDescription(text string) string {
	const min, max = 150, 160
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx >= min {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// topKeywords extracts the top n keywords by frequency minus stop words
// (§4.2 SEO synthesis), n capped at 10 and at the number of distinct
// words; there is no lower bound.
func topKeywords(bodyText string, n int) []string {
	freq := make(map[string]int)
	for _, w := range wordRe.FindAllString(strings.ToLower(bodyText), -1) {
		if len(w) < 3 || stopWords[w] {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if n > 10 {
		n = 10
	}
	if len(words) < n {
		n = len(words)
	}
	return words[:n]
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(stripTags(m[1]))
}

func stripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return strings.TrimSpace(b.String())
		}
		if tt == html.TextToken {
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

var imgTagRe = regexp.MustCompile(`(?is)<img[^>]*src=["']([^"']+)["'][^>]*>`)

// extractImagesHeuristic records position = containing-paragraph index,
// source_url = src, and caption = nearest figcaption, else alt, else title
// (§4.2 Images).
func extractImagesHeuristic(bodyHTML string) []models.ArticleImage {
	var paragraphStarts []int
	for _, loc := range paragraphRe.FindAllStringIndex(bodyHTML, -1) {
		paragraphStarts = append(paragraphStarts, loc[0])
	}

	type imgMatch struct {
		start        int
		src, caption string
	}
	var matches []imgMatch

	for _, floc := range figureRe.FindAllStringSubmatchIndex(bodyHTML, -1) {
		figContent := bodyHTML[floc[2]:floc[3]]
		imgs := imgTagRe.FindAllStringSubmatch(figContent, -1)
		if len(imgs) == 0 {
			continue
		}
		caption := firstMatch(figcaptionRe, figContent)
		for _, im := range imgs {
			matches = append(matches, imgMatch{start: floc[0], src: im[1], caption: caption})
		}
	}

	bare := figureRe.ReplaceAllString(bodyHTML, "")
	for _, loc := range imgTagRe.FindAllStringSubmatchIndex(bare, -1) {
		tag := bare[loc[0]:loc[1]]
		src := bare[loc[2]:loc[3]]
		caption := firstMatch(altAttrRe, tag)
		if caption == "" {
			caption = firstMatch(titleAttrRe, tag)
		}
		matches = append(matches, imgMatch{start: loc[0], src: src, caption: caption})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	images := make([]models.ArticleImage, 0, len(matches))
	for _, m := range matches {
		images = append(images, models.ArticleImage{
			Position:  paragraphIndexFor(paragraphStarts, m.start),
			SourceURL: m.src,
			Caption:   m.caption,
		})
	}
	return images
}

func paragraphIndexFor(paragraphStarts []int, pos int) int {
	idx := 0
	for i, s := range paragraphStarts {
		if s <= pos {
			idx = i
		} else {
			break
		}
	}
	return idx
}

package parser

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/llm"
	"github.com/fieldnotes/articlepipeline/internal/models"
)

// fakeLLM implements llm.Client and lets each test script a single
// Complete response or error.
type fakeLLM struct {
	toolInput []byte
	err       error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if f.err != nil {
		return llm.CompletionResult{}, f.err
	}
	return llm.CompletionResult{ToolInput: f.toolInput}, nil
}

func toolInput(t *testing.T, out aiToolOutput) []byte {
	t.Helper()
	b, err := json.Marshal(out)
	require.NoError(t, err)
	return b
}

func TestParse_AISuccessUsesStrategyA(t *testing.T) {
	out := aiToolOutput{
		TitleMain: "A Fine Title",
		BodyHTML:  "<p>" + strings.Repeat("word ", 30) + "</p>",
	}
	p := New(&fakeLLM{toolInput: toolInput(t, out)})

	result, err := p.Parse(context.Background(), "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodAI, result.Method)
	assert.Equal(t, aiDeclaredConfidence, result.Confidence)
	assert.Equal(t, "A Fine Title", result.TitleMain)
}

func TestParse_FallsBackOnNetworkError(t *testing.T) {
	p := New(&fakeLLM{err: assertErr{}})

	result, err := p.Parse(context.Background(), "<h1>Heuristic Title</h1><p>"+strings.Repeat("word ", 30)+"</p>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodHeuristic, result.Method)
	assert.Equal(t, heuristicDeclaredConfidence, result.Confidence)
	assert.Equal(t, "Heuristic Title", result.TitleMain)
}

type assertErr struct{}

func (assertErr) Error() string { return "network unreachable" }

func TestParse_FallsBackOnSchemaViolation(t *testing.T) {
	p := New(&fakeLLM{toolInput: []byte(`{"title_main": 5}`)}) // wrong type for title_main

	result, err := p.Parse(context.Background(), "<h1>Heuristic Title</h1><p>"+strings.Repeat("word ", 30)+"</p>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodHeuristic, result.Method)
}

func TestParse_FallsBackOnEmptyTitleMain(t *testing.T) {
	out := aiToolOutput{TitleMain: "", BodyHTML: "<p>" + strings.Repeat("word ", 30) + "</p>"}
	p := New(&fakeLLM{toolInput: toolInput(t, out)})

	result, err := p.Parse(context.Background(), "<h1>Heuristic Title</h1><p>"+strings.Repeat("word ", 30)+"</p>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodHeuristic, result.Method)
}

func TestParse_BodyExactlyAtBoundarySucceeds(t *testing.T) {
	body := strings.Repeat("a", minBodyBytes)
	require.GreaterOrEqual(t, len(body), minBodyBytes)
	out := aiToolOutput{TitleMain: "Title", BodyHTML: body}
	p := New(&fakeLLM{toolInput: toolInput(t, out)})

	result, err := p.Parse(context.Background(), "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodAI, result.Method)
}

func TestParse_BodyShorterThanBoundaryFallsBack(t *testing.T) {
	out := aiToolOutput{TitleMain: "Title", BodyHTML: strings.Repeat("a", minBodyBytes-1)}
	p := New(&fakeLLM{toolInput: toolInput(t, out)})

	result, err := p.Parse(context.Background(), "<h1>Heuristic Title</h1><p>"+strings.Repeat("word ", 30)+"</p>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodHeuristic, result.Method)
}

func TestParse_NoLLMClientGoesStraightToHeuristic(t *testing.T) {
	p := New(nil)
	result, err := p.Parse(context.Background(), "<h1>Only Heuristic</h1><p>"+strings.Repeat("word ", 30)+"</p>")
	require.NoError(t, err)
	assert.Equal(t, models.ParsingMethodHeuristic, result.Method)
}

func TestExtractTitleHeuristic_H1Preferred(t *testing.T) {
	main, suffix, prefix := extractTitleHeuristic(`<html><head><title>Fallback - Site</title></head><body><h1>Real Title - Site Name</h1></body></html>`)
	assert.Equal(t, "Real Title", main)
	assert.Equal(t, "Site Name", suffix)
	assert.Empty(t, prefix)
}

func TestExtractTitleHeuristic_BracketPrefixAndColonSeparator(t *testing.T) {
	main, suffix, prefix := extractTitleHeuristic(`<h1>【Breaking】Market rallies: Evening Report</h1>`)
	assert.Equal(t, "【Breaking】", prefix)
	assert.Equal(t, "Market rallies", main)
	assert.Equal(t, "Evening Report", suffix)
}

func TestExtractTitleHeuristic_FallsBackToSubstantiveParagraph(t *testing.T) {
	html := `<body><p>hi</p><p>` + strings.Repeat("x", 40) + `</p></body>`
	main, _, _ := extractTitleHeuristic(html)
	assert.Equal(t, strings.Repeat("x", 40), main)
}

func TestExtractAuthorHeuristic_CJKWenPattern(t *testing.T) {
	author := extractAuthorHeuristic("<p>some text</p>\n文/ 张三\n<p>more</p>")
	assert.Equal(t, "张三", author)
}

func TestExtractAuthorHeuristic_ZuozhePattern(t *testing.T) {
	author := extractAuthorHeuristic("作者：李四\n")
	assert.Equal(t, "李四", author)
}

func TestExtractAuthorHeuristic_ByPattern(t *testing.T) {
	author := extractAuthorHeuristic("By Jane Doe\n")
	assert.Equal(t, "Jane Doe", author)
}

func TestExtractAuthorHeuristic_FallsBackToMetaTag(t *testing.T) {
	author := extractAuthorHeuristic(`<meta name="author" content="Meta Author">`)
	assert.Equal(t, "Meta Author", author)
}

func TestDropLeadingMetadataParagraph_DropsBylineLine(t *testing.T) {
	body := `<p>Posted by admin on 2026-01-01 12:00 in Category Tags</p><p>Real article content goes here.</p>`
	out := dropLeadingMetadataParagraph(body)
	assert.NotContains(t, out, "Posted by admin")
	assert.Contains(t, out, "Real article content")
}

func TestDropLeadingMetadataParagraph_KeepsSubstantiveFirstParagraph(t *testing.T) {
	body := `<p>This is a perfectly normal opening paragraph with real prose.</p>`
	out := dropLeadingMetadataParagraph(body)
	assert.Equal(t, body, out)
}

func TestTruncateDescription_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short text", truncateDescription("short text"))
}

func TestTruncateDescription_LongTextCutAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 50) // 250 chars
	out := truncateDescription(text)
	assert.LessOrEqual(t, len(out), 160)
	assert.NotContains(t, out, "  ")
}

func TestTopKeywords_ExcludesStopWordsAndShortWords(t *testing.T) {
	keywords := topKeywords("the quick brown fox jumps over the lazy dog brown brown fox fox fox", 10)
	assert.Contains(t, keywords, "fox")
	assert.Contains(t, keywords, "brown")
	assert.NotContains(t, keywords, "the")
	assert.LessOrEqual(t, len(keywords), 10)
}

func TestExtractImagesHeuristic_FigureUsesFigcaption(t *testing.T) {
	body := `<p>intro</p><figure><img src="a.jpg"><figcaption>A caption</figcaption></figure>`
	images := extractImagesHeuristic(body)
	require.Len(t, images, 1)
	assert.Equal(t, "a.jpg", images[0].SourceURL)
	assert.Equal(t, "A caption", images[0].Caption)
	assert.Equal(t, 0, images[0].Position)
}

func TestExtractImagesHeuristic_BareImgFallsBackToAltThenTitle(t *testing.T) {
	body := `<p>intro</p><img src="b.jpg" alt="alt text">`
	images := extractImagesHeuristic(body)
	require.Len(t, images, 1)
	assert.Equal(t, "alt text", images[0].Caption)

	body2 := `<p>intro</p><img src="c.jpg" title="title text">`
	images2 := extractImagesHeuristic(body2)
	require.Len(t, images2, 1)
	assert.Equal(t, "title text", images2[0].Caption)
}

func TestExtractImagesHeuristic_PositionTracksParagraphIndex(t *testing.T) {
	body := `<p>first</p><p>second</p><img src="d.jpg"><p>third</p>`
	images := extractImagesHeuristic(body)
	require.Len(t, images, 1)
	assert.Equal(t, 1, images[0].Position)
}

// Package sanitize wraps microcosm-cc/bluemonday for article body HTML and
// adds an offset table bluemonday itself does not produce: a mapping from
// byte offsets in the raw text to byte offsets in the sanitized text, so
// ProofreadingIssue spans computed against one version still resolve
// correctly against the other. The tokenizer walk is grounded on
// golang.org/x/net/html's streaming Tokenizer, run in lockstep over both
// the raw and sanitized token streams.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Policy wraps the bluemonday policy used for article bodies: a permissive
// article-content allowlist (headings, paragraphs, lists, links, images,
// emphasis) rather than bluemonday's stricter UGC defaults, since article
// HTML is authored by trusted editors, not arbitrary commenters.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements("p", "h1", "h2", "h3", "h4", "ul", "ol", "li", "blockquote", "br", "hr")
	p.AllowElements("strong", "em", "b", "i", "u", "s", "sup", "sub")
	p.AllowAttrs("href", "title", "rel", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.RequireNoFollowOnLinks(true)
	return p
}

// Result is sanitized HTML plus the raw->sanitized offset table.
type Result struct {
	SanitizedHTML string
	Table         OffsetTable
}

// Sanitize runs raw through policy and builds the offset table by walking
// both the raw and sanitized token streams, matching text tokens in order.
// Tokens bluemonday dropped (disallowed tags or attributes) simply have no
// entry; MapOffset falls back to the nearest preceding mapped offset.
func Sanitize(policy *bluemonday.Policy, raw string) Result {
	sanitized := policy.Sanitize(raw)
	table := buildOffsetTable(raw, sanitized)
	return Result{SanitizedHTML: sanitized, Table: table}
}

// offsetPair anchors one matched text run between the two streams.
type offsetPair struct {
	RawStart, RawEnd             int
	SanitizedStart, SanitizedEnd int
}

// OffsetTable maps spans between raw and sanitized text.
type OffsetTable struct {
	pairs []offsetPair
}

// MapOffset translates a raw-text byte offset into the corresponding
// sanitized-text offset, using the nearest preceding anchor pair and
// carrying forward any residual delta within that run.
func (t OffsetTable) MapOffset(rawOffset int) int {
	best := -1
	for i, p := range t.pairs {
		if p.RawStart <= rawOffset {
			best = i
		} else {
			break
		}
	}
	if best == -1 {
		return 0
	}
	p := t.pairs[best]
	delta := rawOffset - p.RawStart
	mapped := p.SanitizedStart + delta
	if mapped > p.SanitizedEnd {
		mapped = p.SanitizedEnd
	}
	return mapped
}

// buildOffsetTable walks both token streams and anchors matching text
// tokens. Non-text tokens (tags) advance the raw cursor but are not
// anchors themselves; each raw text token is searched for inside the
// sanitized text tokens from the last anchor onward (stripping a tag can
// merge two raw text runs into one sanitized run). A raw token whose text
// was dropped is not found and gets no anchor.
func buildOffsetTable(raw, sanitized string) OffsetTable {
	rawTokens := textTokens(raw)
	sanTokens := textTokens(sanitized)

	var table OffsetTable
	si, within := 0, 0
	for _, rt := range rawTokens {
		j, off, idx := si, within, -1
		for ; j < len(sanTokens); j, off = j+1, 0 {
			if idx = strings.Index(sanTokens[j].text[off:], rt.text); idx >= 0 {
				break
			}
		}
		if j >= len(sanTokens) {
			continue
		}
		start := sanTokens[j].start + off + idx
		table.pairs = append(table.pairs, offsetPair{
			RawStart:       rt.start,
			RawEnd:         rt.start + len(rt.text),
			SanitizedStart: start,
			SanitizedEnd:   start + len(rt.text),
		})
		si, within = j, off+idx+len(rt.text)
	}
	return table
}

type textToken struct {
	text  string
	start int
}

// textTokens tokenizes doc with html.Tokenizer and returns every text node
// with its byte offset in the original string.
func textTokens(doc string) []textToken {
	z := html.NewTokenizer(strings.NewReader(doc))
	var out []textToken
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		raw := z.Raw()
		if tt == html.TextToken {
			text := string(z.Text())
			if strings.TrimSpace(text) != "" {
				out = append(out, textToken{text: text, start: offset})
			}
		}
		offset += len(raw)
	}
}

// MapIssueSpan translates a ProofreadingIssue's span given in raw-body
// offsets into the corresponding sanitized-body offsets, via MapOffset.
func MapIssueSpan(table OffsetTable, span models.TextSpan) models.TextSpan {
	return models.TextSpan{
		Start: table.MapOffset(span.Start),
		End:   table.MapOffset(span.End),
	}
}

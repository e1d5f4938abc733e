// Package extract implements the Extractor interface.
// It isolates the main article content from a full HTML page by:
//  1. Removing noise elements (nav, footer, scripts, ads, forms, media)
//  2. Picking the best content container (<main>, <article>, or the
//     text-densest block, falling back to <body>)
//  3. Resolving relative links against the page URL
//
// When the readability pass yields nothing, a plain-text fallback wraps
// whatever text the page has in a single <article> element so the output
// shape stays uniform. Emptiness is a downstream concern.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// noiseSelectors are HTML elements removed before extraction.
// These contribute no meaningful content to the article text.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header", "aside",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
	".comments", ".related", ".share", ".newsletter",
}

// minContentChars is the smallest readability result considered usable.
// Below this the plain-text fallback takes over.
const minContentChars = 80

// ReadabilityExtractor strips noise from HTML and returns the main
// content fragment plus a best-effort title.
type ReadabilityExtractor struct{}

// New creates a ReadabilityExtractor.
func New() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract takes the page URL and raw HTML and returns the main content.
// It never fails for "no content found": the fallback produces some
// output (possibly an empty wrapper). An error means the HTML could not
// be parsed at all.
func (e *ReadabilityExtractor) Extract(pageURL, html string) (*core.Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	title := pageTitle(doc)

	// Fallback text is captured before noise removal mutates the tree,
	// so boilerplate-only pages still yield their visible text.
	fallbackText := collapseSpace(doc.Find("body").Text())
	if fallbackText == "" {
		fallbackText = collapseSpace(doc.Text())
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	content := bestContainer(doc)
	if content != nil {
		resolveRelativeURLs(content, pageURL)
		fragment, err := goquery.OuterHtml(content)
		if err == nil && len(collapseSpace(content.Text())) >= minContentChars {
			return &core.Extracted{Title: title, ContentHTML: fragment}, nil
		}
	}

	// Readability yielded nothing usable; wrap the raw text so the
	// output shape stays uniform for the normalizer.
	return &core.Extracted{
		Title:       title,
		ContentHTML: "<article>" + escapeText(fallbackText) + "</article>",
	}, nil
}

// bestContainer picks the content root in priority order: the
// semantically correct tags first, then the text-densest block, then
// <body> as a last resort.
func bestContainer(doc *goquery.Document) *goquery.Selection {
	for _, tag := range []string{"main", "article"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			return sel.First()
		}
	}

	// Score candidate blocks by paragraph text mass. Link-heavy blocks
	// (menus, footers that survived noise removal) score poorly.
	var best *goquery.Selection
	bestScore := 0
	doc.Find("div, section, td").Each(func(_ int, s *goquery.Selection) {
		score := 0
		s.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
			text := collapseSpace(p.Text())
			linkText := collapseSpace(p.Find("a").Text())
			score += len(text) - 2*len(linkText)
		})
		if score > bestScore {
			best, bestScore = s, score
		}
	})
	if best != nil && bestScore >= minContentChars {
		return best
	}

	if sel := doc.Find("body"); sel.Length() > 0 {
		return sel.First()
	}
	return nil
}

// pageTitle prefers og:title, then <title>, then the first <h1>.
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := collapseSpace(og); t != "" {
			return t
		}
	}
	if t := collapseSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapseSpace(doc.Find("h1").First().Text())
}

// resolveRelativeURLs rewrites href and src attributes relative to the
// page URL so links survive the HTML→Markdown conversion.
func resolveRelativeURLs(sel *goquery.Selection, pageURL string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	for _, attr := range []string{"href", "src"} {
		sel.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			raw, _ := s.Attr(attr)
			ref, err := url.Parse(raw)
			if err != nil || ref.IsAbs() {
				return
			}
			s.SetAttr(attr, base.ResolveReference(ref).String())
		})
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// escapeText guards the fallback wrapper against text that looks like markup.
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

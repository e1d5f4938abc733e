// Package render — PDF renderer.
// Converts a capsule into a styled PDF using gofpdf: one section per
// page, with headings, paragraphs, code blocks, and lists. Images are
// intentionally not rendered.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/codecapsule/store"
)

// PDFRenderer renders a capsule as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the capsule into PDF bytes.
func (r *PDFRenderer) Render(c *store.Capsule) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, c.Title, "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	if c.Content.Meta.Description != "" {
		pdf.MultiCell(0, 5, c.Content.Meta.Description, "", "L", false)
	}
	if c.Content.Meta.SourceURL != "" {
		pdf.MultiCell(0, 5, "Source: "+c.Content.Meta.SourceURL, "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	for _, page := range c.Content.Pages {
		renderHeading(pdf, fmt.Sprintf("%d. %s", page.Page, page.PageTitle), 2)
		renderMarkdownBody(pdf, page.Body)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderMarkdownBody parses and renders a page body line by line.
func renderMarkdownBody(pdf *gofpdf.Fpdf, markdown string) {
	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for _, line := range lines {
		// Toggle code block state.
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, line, "", "L", true)
			continue
		}

		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch == '#' {
					level++
				} else {
					break
				}
			}
			text := strings.TrimSpace(strings.TrimLeft(line, "# "))
			// Page bodies nest under the capsule-level headings.
			renderHeading(pdf, text, level+1)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			text := "• " + strings.TrimSpace(trimmed[2:])
			pdf.MultiCell(0, 5, cleanInlineMarkdown(text), "", "L", false)
			continue
		}

		if matched, _ := regexp.MatchString(`^\d+\.\s`, trimmed); matched {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, cleanInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, cleanInlineMarkdown(line), "", "L", false)
	}
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	// Remove bold markers.
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	// Remove italic markers (but not inside words like don't).
	re := regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	text = re.ReplaceAllString(text, " $1 ")
	// Remove inline code markers.
	text = regexp.MustCompile("`([^`]+)`").ReplaceAllString(text, "$1")
	// Remove link syntax, keep text.
	text = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// Package render exports persisted capsules as Markdown, JSON, or PDF.
// This file implements the Markdown renderer, which stitches the pages
// back into one document.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/codecapsule/store"
)

// Renderer converts a persisted capsule into a downloadable format.
type Renderer interface {
	Render(c *store.Capsule) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md").
	Extension() string
}

// MarkdownRenderer writes the capsule as a single Markdown document.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render concatenates the capsule pages under the capsule title.
func (r *MarkdownRenderer) Render(c *store.Capsule) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", c.Title)
	if c.Content.Meta.Description != "" {
		fmt.Fprintf(&sb, "> %s\n\n", c.Content.Meta.Description)
	}
	if c.Content.Meta.SourceURL != "" {
		fmt.Fprintf(&sb, "Source: %s\n\n", c.Content.Meta.SourceURL)
	}
	for _, p := range c.Content.Pages {
		fmt.Fprintf(&sb, "## %d. %s\n\n%s\n\n", p.Page, p.PageTitle, strings.TrimSpace(p.Body))
	}
	return []byte(sb.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Package core defines the pipeline types and interfaces for CodeCapsule.
// Each stage of the URL-to-capsule pipeline is a small, testable interface.
package core

import (
	"context"
	"time"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Extracted holds the main-content fragment isolated from a full page.
// Title is best-effort and may be empty; ContentHTML is always set
// (possibly to an empty wrapper) — emptiness is detected downstream.
type Extracted struct {
	Title       string
	ContentHTML string
}

// Chunk is a heading-aligned segment of normalized Markdown.
type Chunk struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ChunkSummary is a short local digest of a chunk, sent to the generator
// alongside the full article so long documents stay navigable.
type ChunkSummary struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// GeneratedPage is one page of a generated capsule.
type GeneratedPage struct {
	Page      int    `json:"page"`
	PageTitle string `json:"page_title"`
	Body      string `json:"body"`
}

// GeneratedCapsule is the structured document returned by the generator,
// before schema validation and renumbering.
type GeneratedCapsule struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Pages       []GeneratedPage `json:"pages"`
}

// CapsuleMeta is the metadata block stored inside a capsule's content column.
type CapsuleMeta struct {
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

// CapsuleContent is the structured document persisted for a capsule.
type CapsuleContent struct {
	Meta  CapsuleMeta     `json:"meta"`
	Pages []GeneratedPage `json:"pages"`
}

// NewCapsule is the insert payload handed to persistence at the end of a
// successful run. The id is generated by the store, never by the pipeline.
type NewCapsule struct {
	Title      string
	TotalPages int
	Content    CapsuleContent
	CreatedBy  string
	CreatedAt  time.Time
}

// GenerationInput is the request payload for the external generator.
type GenerationInput struct {
	URL            string
	Markdown       string
	ChunkSummaries []ChunkSummary
}

// Step identifies a pipeline stage transition.
type Step string

const (
	StepFetching   Step = "fetching"
	StepExtracting Step = "extracting"
	StepChunking   Step = "chunking"
	StepGenerating Step = "generating"
	StepFinalizing Step = "finalizing"
	StepCompleted  Step = "completed"
	StepFailed     Step = "failed"
)

// ProgressEvent is a discrete, ordered notification of a stage transition.
// Error is set only on the failed terminal; CapsuleID only on completed.
type ProgressEvent struct {
	Step      Step   `json:"step"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	CapsuleID string `json:"capsuleId,omitempty"`
}

// EmitFunc receives progress events for a single run, in step order.
// The pipeline calls it inline, so implementations must not block for long.
type EmitFunc func(ProgressEvent)

// Fetcher retrieves raw HTML from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor isolates the main article content from raw HTML.
// It degrades to a text fallback instead of failing on "no content";
// an error means the HTML could not be parsed at all.
type Extractor interface {
	Extract(pageURL, html string) (*Extracted, error)
}

// Normalizer converts extracted HTML into Markdown (the canonical format).
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Chunker splits normalized Markdown into bounded, heading-aligned segments.
type Chunker interface {
	Chunk(markdown string) []Chunk
}

// Generator is the external capability that turns an article into a
// structured capsule. Implementations wrap an LLM vendor call.
type Generator interface {
	Generate(ctx context.Context, input GenerationInput) (*GeneratedCapsule, error)
}

// CapsuleStore is the persistence capability the pipeline depends on.
// Exactly one insert per successful run; the store returns the new id.
type CapsuleStore interface {
	InsertCapsule(ctx context.Context, c NewCapsule) (string, error)
}

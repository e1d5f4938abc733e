// Package pipeline sequences the URL-to-capsule stages: fetch → extract
// → normalize → chunk → generate → validate → persist. It emits ordered
// progress events, maps every failure to a stable error code, and
// guarantees exactly one terminal event per run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/core/chunk"
	"github.com/gaurav-prasanna/codecapsule/core/urlcheck"
	"github.com/gaurav-prasanna/codecapsule/core/validate"
)

// listingCachePrefix keys every cached listing view, so a successful
// run can invalidate them all in one sweep.
const listingCachePrefix = "capsules:"

// Result is the outcome of one run. Err is a *core.PipelineError; its
// Message is the short user-facing string surfaced on failure.
type Result struct {
	OK  bool
	ID  string
	Err *core.PipelineError
}

// Runner orchestrates a single sequential run per submitted URL.
// All collaborators are injected; the Runner holds no global state.
// Concurrent runs are fully independent: each creates a disjoint new
// capsule row, so no cross-run coordination is needed (two submissions
// of the same URL each run the full pipeline).
type Runner struct {
	Fetcher    core.Fetcher
	Extractor  core.Extractor
	Normalizer core.Normalizer
	Chunker    core.Chunker
	Generator  core.Generator
	Store      core.CapsuleStore

	// Cache is invalidated best-effort after success; nil disables it.
	Cache *cache.Cache
	// URLPolicy controls the pre-run host restrictions.
	URLPolicy urlcheck.Policy
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Run executes the pipeline for url on behalf of userID. Progress
// events go to emit (which may be nil) in fixed step order, terminated
// by exactly one completed or failed event. Precondition failures —
// invalid URL, missing identity — return immediately without entering
// the event stream.
func (r *Runner) Run(ctx context.Context, url, userID string, emit core.EmitFunc) Result {
	if emit == nil {
		emit = func(core.ProgressEvent) {}
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	runID := ulid.Make().String()
	log = log.With("run_id", runID, "url", url)

	if !urlcheck.IsValidHTTPURL(url, r.URLPolicy) {
		log.Warn("rejected submission", "reason", "invalid url")
		return Result{Err: core.NewError(core.ErrInvalidURL, "Invalid URL", nil)}
	}
	if userID == "" {
		log.Warn("rejected submission", "reason", "no identity")
		return Result{Err: core.NewError(core.ErrUnauthorized, "Unauthorized", nil)}
	}

	fail := func(code core.ErrorCode, message string, cause error) Result {
		perr := core.NewError(code, message, cause)
		log.Error("run failed", "code", code, "err", cause)
		emit(core.ProgressEvent{Step: core.StepFailed, Message: message, Error: message})
		return Result{Err: perr}
	}

	emit(core.ProgressEvent{Step: core.StepFetching, Message: "Fetching content from URL..."})
	fetched, err := r.Fetcher.Fetch(ctx, url)
	if err != nil {
		return fail(core.ErrFetch, "Failed to fetch URL", err)
	}

	emit(core.ProgressEvent{Step: core.StepExtracting, Message: "Extracting main content..."})
	extracted, err := r.Extractor.Extract(url, fetched.HTML)
	if err != nil {
		return fail(core.ErrExtraction, "Failed to extract content", err)
	}
	markdown, err := r.Normalizer.Normalize(extracted.ContentHTML)
	if err != nil {
		return fail(core.ErrExtraction, "Failed to extract content", err)
	}

	emit(core.ProgressEvent{Step: core.StepChunking, Message: "Processing content..."})
	chunks := r.Chunker.Chunk(markdown)
	summaries := chunk.Summaries(chunks, chunk.SummaryLimit)
	log.Info("content chunked", "chunks", len(chunks), "markdown_chars", len(markdown))

	emit(core.ProgressEvent{Step: core.StepGenerating, Message: "Generating capsule with AI..."})
	generated, err := r.Generator.Generate(ctx, core.GenerationInput{
		URL:            url,
		Markdown:       markdown,
		ChunkSummaries: summaries,
	})
	if err != nil {
		return fail(core.ErrGeneration, "AI generation failed", err)
	}
	if err := validate.Capsule(generated); err != nil {
		return fail(core.ErrValidation, "Generated content invalid", err)
	}
	validate.Renumber(generated)

	emit(core.ProgressEvent{Step: core.StepFinalizing, Message: "Saving capsule..."})
	id, err := r.Store.InsertCapsule(ctx, core.NewCapsule{
		Title:      generated.Title,
		TotalPages: len(generated.Pages),
		Content: core.CapsuleContent{
			Meta:  core.CapsuleMeta{Description: generated.Description, SourceURL: url},
			Pages: generated.Pages,
		},
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fail(core.ErrPersistence, "Failed to save capsule", err)
	}

	r.invalidateListings(log)

	log.Info("run completed", "capsule_id", id, "pages", len(generated.Pages))
	emit(core.ProgressEvent{Step: core.StepCompleted, Message: "Capsule created", CapsuleID: id})
	return Result{OK: true, ID: id}
}

// invalidateListings clears cached listing views after a successful
// run. It is fire-and-forget: the run's outcome never depends on it.
func (r *Runner) invalidateListings(log *slog.Logger) {
	if r.Cache == nil {
		return
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Warn("listing cache invalidation panicked", "recovered", rec)
			}
		}()
		r.Cache.InvalidatePrefix(listingCachePrefix)
	}()
}

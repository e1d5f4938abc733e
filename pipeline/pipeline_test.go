package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/core/chunk"
	"github.com/gaurav-prasanna/codecapsule/core/generate"
)

// --- test doubles ---

type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*core.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &core.FetchResult{URL: url, StatusCode: 200, HTML: f.html}, nil
}

type fakeExtractor struct{ err error }

func (f *fakeExtractor) Extract(_, html string) (*core.Extracted, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.Extracted{Title: "t", ContentHTML: "<article>" + html + "</article>"}, nil
}

type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(html string) (string, error) {
	return "## Section\n" + html, nil
}

type fakeStore struct {
	err      error
	inserted []core.NewCapsule
}

func (f *fakeStore) InsertCapsule(_ context.Context, c core.NewCapsule) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inserted = append(f.inserted, c)
	return "capsule-1", nil
}

func newRunner(fetcher core.Fetcher, gen core.Generator, st core.CapsuleStore) *Runner {
	return &Runner{
		Fetcher:    fetcher,
		Extractor:  &fakeExtractor{},
		Normalizer: fakeNormalizer{},
		Chunker:    chunk.New(chunk.DefaultMaxLen),
		Generator:  gen,
		Store:      st,
	}
}

func steps(events []core.ProgressEvent) []core.Step {
	out := make([]core.Step, 0, len(events))
	for _, e := range events {
		out = append(out, e.Step)
	}
	return out
}

// --- tests ---

func TestRun_SuccessEmitsFullSequence(t *testing.T) {
	st := &fakeStore{}
	r := newRunner(&fakeFetcher{html: "<p>body</p>"}, &generate.Mock{}, st)

	var events []core.ProgressEvent
	res := r.Run(context.Background(), "https://example.com/a", "user-1", func(e core.ProgressEvent) {
		events = append(events, e)
	})

	require.True(t, res.OK)
	assert.Equal(t, "capsule-1", res.ID)
	assert.Equal(t, []core.Step{
		core.StepFetching, core.StepExtracting, core.StepChunking,
		core.StepGenerating, core.StepFinalizing, core.StepCompleted,
	}, steps(events))
	assert.Equal(t, "capsule-1", events[len(events)-1].CapsuleID)

	require.Len(t, st.inserted, 1)
	ins := st.inserted[0]
	assert.Equal(t, "user-1", ins.CreatedBy)
	assert.Equal(t, len(ins.Content.Pages), ins.TotalPages)
	assert.Equal(t, "https://example.com/a", ins.Content.Meta.SourceURL)
	assert.False(t, ins.CreatedAt.IsZero())
}

func TestRun_InvalidURLNeverEntersStream(t *testing.T) {
	f := &fakeFetcher{html: "x"}
	r := newRunner(f, &generate.Mock{}, &fakeStore{})

	var events []core.ProgressEvent
	res := r.Run(context.Background(), "ftp://example.com", "user-1", func(e core.ProgressEvent) {
		events = append(events, e)
	})

	require.False(t, res.OK)
	assert.Equal(t, core.ErrInvalidURL, res.Err.Code)
	assert.Equal(t, "Invalid URL", res.Err.Message)
	assert.Empty(t, events)
	assert.Zero(t, f.calls, "no network call for invalid URLs")
}

func TestRun_MissingIdentityFailsFast(t *testing.T) {
	f := &fakeFetcher{html: "x"}
	r := newRunner(f, &generate.Mock{}, &fakeStore{})

	res := r.Run(context.Background(), "https://example.com", "", nil)
	require.False(t, res.OK)
	assert.Equal(t, core.ErrUnauthorized, res.Err.Code)
	assert.Zero(t, f.calls)
}

func TestRun_FetchFailureIsStrictPrefixPlusFailed(t *testing.T) {
	st := &fakeStore{}
	r := newRunner(&fakeFetcher{err: errors.New("timeout")}, &generate.Mock{}, st)

	var events []core.ProgressEvent
	res := r.Run(context.Background(), "https://example.com", "user-1", func(e core.ProgressEvent) {
		events = append(events, e)
	})

	require.False(t, res.OK)
	assert.Equal(t, core.ErrFetch, res.Err.Code)
	assert.Equal(t, []core.Step{core.StepFetching, core.StepFailed}, steps(events))
	assert.Equal(t, "Failed to fetch URL", events[1].Error)
	assert.Empty(t, st.inserted)
}

func TestRun_GeneratorErrorNeverWritesStorage(t *testing.T) {
	st := &fakeStore{}
	r := newRunner(&fakeFetcher{html: "x"}, &generate.Mock{Err: errors.New("bad json")}, st)

	var events []core.ProgressEvent
	res := r.Run(context.Background(), "https://example.com", "user-1", func(e core.ProgressEvent) {
		events = append(events, e)
	})

	require.False(t, res.OK)
	assert.Equal(t, core.ErrGeneration, res.Err.Code)
	assert.Equal(t, []core.Step{
		core.StepFetching, core.StepExtracting, core.StepChunking,
		core.StepGenerating, core.StepFailed,
	}, steps(events))
	assert.Empty(t, st.inserted)
}

func TestRun_InvalidGenerationOutputFailsValidation(t *testing.T) {
	gen := &generate.Mock{Reply: &core.GeneratedCapsule{Title: "T"}} // no description, no pages
	st := &fakeStore{}
	r := newRunner(&fakeFetcher{html: "x"}, gen, st)

	res := r.Run(context.Background(), "https://example.com", "user-1", nil)
	require.False(t, res.OK)
	assert.Equal(t, core.ErrValidation, res.Err.Code)
	assert.Equal(t, "Generated content invalid", res.Err.Message)
	assert.Empty(t, st.inserted)
}

func TestRun_RenumbersUntrustedPages(t *testing.T) {
	gen := &generate.Mock{Reply: &core.GeneratedCapsule{
		Title:       "T",
		Description: "D",
		Pages: []core.GeneratedPage{
			{Page: 5, PageTitle: "x", Body: "y"},
			{Page: 9, PageTitle: "x2", Body: "y2"},
		},
	}}
	st := &fakeStore{}
	r := newRunner(&fakeFetcher{html: "x"}, gen, st)

	res := r.Run(context.Background(), "https://example.com", "user-1", nil)
	require.True(t, res.OK)
	require.Len(t, st.inserted, 1)
	pages := st.inserted[0].Content.Pages
	for i, p := range pages {
		assert.Equal(t, i+1, p.Page)
	}
}

func TestRun_PersistenceFailure(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	r := newRunner(&fakeFetcher{html: "x"}, &generate.Mock{}, st)

	var events []core.ProgressEvent
	res := r.Run(context.Background(), "https://example.com", "user-1", func(e core.ProgressEvent) {
		events = append(events, e)
	})

	require.False(t, res.OK)
	assert.Equal(t, core.ErrPersistence, res.Err.Code)
	assert.Equal(t, core.StepFailed, events[len(events)-1].Step)
}

func TestRun_ExactlyOneTerminalEvent(t *testing.T) {
	for name, r := range map[string]*Runner{
		"success": newRunner(&fakeFetcher{html: "x"}, &generate.Mock{}, &fakeStore{}),
		"failure": newRunner(&fakeFetcher{err: errors.New("nope")}, &generate.Mock{}, &fakeStore{}),
	} {
		t.Run(name, func(t *testing.T) {
			var terminals int
			seen := map[core.Step]int{}
			r.Run(context.Background(), "https://example.com", "user-1", func(e core.ProgressEvent) {
				seen[e.Step]++
				if e.Step == core.StepCompleted || e.Step == core.StepFailed {
					terminals++
				}
			})
			assert.Equal(t, 1, terminals)
			for step, n := range seen {
				assert.Equal(t, 1, n, "step %s repeated", step)
			}
		})
	}
}

func TestRun_InvalidatesListingCacheAfterSuccess(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("capsules:list:20:0", "stale")
	c.Set("other:key", "kept")

	r := newRunner(&fakeFetcher{html: "x"}, &generate.Mock{}, &fakeStore{})
	r.Cache = c

	res := r.Run(context.Background(), "https://example.com", "user-1", nil)
	require.True(t, res.OK)

	// Invalidation is a detached task; give it a moment.
	assert.Eventually(t, func() bool {
		_, ok := c.Get("capsules:list:20:0")
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, ok := c.Get("other:key")
	assert.True(t, ok)
}

func TestRun_PrivateHostBlockedByPolicy(t *testing.T) {
	f := &fakeFetcher{html: "x"}
	r := newRunner(f, &generate.Mock{}, &fakeStore{})
	r.URLPolicy.BlockPrivateHosts = true

	res := r.Run(context.Background(), "http://192.168.0.10/admin", "user-1", nil)
	require.False(t, res.OK)
	assert.Equal(t, core.ErrInvalidURL, res.Err.Code)
	assert.Zero(t, f.calls)
}

package generate

import (
	"context"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// Mock is a Generator stand-in for tests and local runs without an API
// key. It derives a small deterministic capsule from the chunk digests.
type Mock struct {
	// Reply overrides the derived capsule when set.
	Reply *core.GeneratedCapsule
	// Err is returned instead of a capsule when set.
	Err error
}

// Generate returns the configured reply, the configured error, or a
// capsule with one page per chunk digest.
func (m *Mock) Generate(_ context.Context, input core.GenerationInput) (*core.GeneratedCapsule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Reply != nil {
		return m.Reply, nil
	}

	pages := make([]core.GeneratedPage, 0, len(input.ChunkSummaries))
	for _, s := range input.ChunkSummaries {
		pages = append(pages, core.GeneratedPage{
			Page:      s.Index + 1,
			PageTitle: truncate("Part "+s.Text, 60),
			Body:      s.Text,
		})
	}
	if len(pages) == 0 {
		pages = append(pages, core.GeneratedPage{Page: 1, PageTitle: "Overview", Body: input.Markdown})
	}
	return &core.GeneratedCapsule{
		Title:       "Capsule for " + input.URL,
		Description: "Mock capsule generated without an external model.",
		Pages:       pages,
	}, nil
}

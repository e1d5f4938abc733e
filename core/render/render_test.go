package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/store"
)

func sampleCapsule() *store.Capsule {
	return &store.Capsule{
		ID:         "cap-1",
		Title:      "Understanding Goroutines",
		TotalPages: 2,
		Content: core.CapsuleContent{
			Meta: core.CapsuleMeta{
				Description: "A short tour of Go concurrency.",
				SourceURL:   "https://example.com/goroutines",
			},
			Pages: []core.GeneratedPage{
				{Page: 1, PageTitle: "The Basics", Body: "Goroutines are **lightweight** threads.\n\n- cheap to start\n- multiplexed onto OS threads"},
				{Page: 2, PageTitle: "Channels", Body: "Channels connect goroutines.\n\n```go\nch := make(chan int)\n```"},
			},
		},
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()
	assert.Equal(t, ".md", r.Extension())

	out, err := r.Render(sampleCapsule())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Understanding Goroutines")
	assert.Contains(t, text, "> A short tour of Go concurrency.")
	assert.Contains(t, text, "Source: https://example.com/goroutines")
	assert.Contains(t, text, "## 1. The Basics")
	assert.Contains(t, text, "## 2. Channels")
	assert.Contains(t, text, "Goroutines are **lightweight** threads.")
}

func TestJSONRenderer(t *testing.T) {
	r := NewJSONRenderer()
	assert.Equal(t, ".json", r.Extension())

	out, err := r.Render(sampleCapsule())
	require.NoError(t, err)

	var decoded store.Capsule
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Understanding Goroutines", decoded.Title)
	require.Len(t, decoded.Content.Pages, 2)
	assert.Equal(t, "Channels", decoded.Content.Pages[1].PageTitle)
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer()
	assert.Equal(t, ".pdf", r.Extension())

	out, err := r.Render(sampleCapsule())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should start with a PDF header")
	assert.Greater(t, len(out), 500)
}

func TestCleanInlineMarkdown(t *testing.T) {
	cases := map[string]string{
		"**bold** text":           "bold text",
		"`code` sample":           "code sample",
		"[link text](https://x)":  "link text",
		"plain line":              "plain line",
		"__also bold__":           "also bold",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanInlineMarkdown(in))
	}
}

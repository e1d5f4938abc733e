// Package chunk splits normalized Markdown into bounded, heading-aligned
// segments for the generation request. Splitting on level-2/3 headings
// keeps semantic units intact; a fixed-size fallback bounds worst-case
// chunk size regardless of document structure.
package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// DefaultMaxLen is the character budget per chunk.
const DefaultMaxLen = 2200

// Chunker splits Markdown into heading-aligned chunks of at most MaxLen
// characters (size-fallback chunks are hard-bounded; a single oversized
// heading section is kept whole rather than split mid-sentence).
type Chunker struct {
	MaxLen int
}

// New creates a Chunker with the given character budget.
// Defaults to DefaultMaxLen if maxLen <= 0.
func New(maxLen int) *Chunker {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Chunker{MaxLen: maxLen}
}

// Chunk splits the input into ordered chunks with contiguous 0-based
// indices. Non-empty input always yields at least one chunk.
func (c *Chunker) Chunk(markdown string) []core.Chunk {
	segments := splitOnHeadings(markdown)

	var chunks []core.Chunk
	var buffer string
	flush := func() {
		if text := strings.TrimSpace(buffer); text != "" {
			chunks = append(chunks, core.Chunk{Index: len(chunks), Markdown: text})
		}
		buffer = ""
	}

	for _, seg := range segments {
		if buffer != "" && len(buffer)+1+len(seg) > c.MaxLen {
			flush()
			buffer = seg
			continue
		}
		if buffer == "" {
			buffer = seg
		} else {
			buffer = buffer + "\n" + seg
		}
	}
	flush()

	if len(chunks) == 0 {
		// Whole input was whitespace-only segments, or headings never
		// aligned into anything flushable: slice the raw text instead.
		for i := 0; i < len(markdown); {
			piece := truncateAt(markdown[i:], c.MaxLen)
			if piece == "" {
				_, size := utf8.DecodeRuneInString(markdown[i:])
				piece = markdown[i : i+size]
			}
			chunks = append(chunks, core.Chunk{Index: len(chunks), Markdown: piece})
			i += len(piece)
		}
	}
	return chunks
}

// truncateAt shortens s to at most limit bytes without splitting a
// rune, so sliced text stays valid UTF-8.
func truncateAt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// splitOnHeadings cuts the document immediately before each line-start
// "## " or "### " heading.
func splitOnHeadings(markdown string) []string {
	lines := strings.Split(markdown, "\n")
	var segments []string
	var current []string
	for _, line := range lines {
		if isSectionHeading(line) && len(current) > 0 {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		segments = append(segments, strings.Join(current, "\n"))
	}
	return segments
}

func isSectionHeading(line string) bool {
	return strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ")
}

// SummaryLimit is the character budget for a per-chunk digest.
const SummaryLimit = 500

// Summarize collapses whitespace runs to single spaces, trims, and
// truncates to limit characters. This is a cheap local digest, not an
// LLM summary; it never makes an external call.
func Summarize(markdown string, limit int) string {
	if limit <= 0 {
		limit = SummaryLimit
	}
	s := strings.Join(strings.Fields(markdown), " ")
	return truncateAt(s, limit)
}

// Summaries builds the per-chunk digests sent with the generation request.
func Summaries(chunks []core.Chunk, limit int) []core.ChunkSummary {
	out := make([]core.ChunkSummary, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, core.ChunkSummary{Index: c.Index, Text: Summarize(c.Markdown, limit)})
	}
	return out
}

package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SplitsOnSectionHeadings(t *testing.T) {
	md := "intro text\n## First\nbody one\n### Sub\nbody two\n## Second\nbody three"

	c := New(20) // force one section per chunk
	chunks := c.Chunk(md)

	require.Len(t, chunks, 4)
	assert.True(t, strings.HasPrefix(chunks[1].Markdown, "## First"))
	assert.True(t, strings.HasPrefix(chunks[2].Markdown, "### Sub"))
	assert.True(t, strings.HasPrefix(chunks[3].Markdown, "## Second"))
}

func TestChunk_AccumulatesUpToMaxLen(t *testing.T) {
	md := "## A\naaaa\n## B\nbbbb\n## C\ncccc"

	c := New(1000)
	chunks := c.Chunk(md)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunk_IndicesContiguous(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("## Section\n")
		sb.WriteString(strings.Repeat("x", 300))
		sb.WriteString("\n")
	}

	c := New(DefaultMaxLen)
	chunks := c.Chunk(sb.String())

	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Markdown)
	}
}

func TestChunk_ReconstructsInputModuloTrimming(t *testing.T) {
	md := "start\n## One\nalpha beta\n### Two\ngamma delta\n## Three\nepsilon"

	c := New(25)
	chunks := c.Chunk(md)

	var joined strings.Builder
	for _, ch := range chunks {
		joined.WriteString(ch.Markdown)
		joined.WriteString("\n")
	}
	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	assert.Equal(t, normalize(md), normalize(joined.String()))
}

func TestChunk_FallbackSlicesAtMaxLen(t *testing.T) {
	// No headings, whitespace-trimmed-empty segments cannot occur here,
	// so force the fallback with whitespace-only input.
	md := strings.Repeat(" ", 5000)

	c := New(2200)
	chunks := c.Chunk(md)

	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Markdown), 2200)
	}
}

func TestChunk_NonEmptyInputYieldsChunks(t *testing.T) {
	c := New(DefaultMaxLen)
	assert.NotEmpty(t, c.Chunk("just one line"))
	assert.Empty(t, c.Chunk(""))
}

func TestChunk_LongDocumentProducesEnoughChunks(t *testing.T) {
	// 9000 characters across heading sections with maxLen 2200 must
	// produce at least 4 chunks, none oversized by more than a section.
	var sb strings.Builder
	for sb.Len() < 9000 {
		sb.WriteString("## Part\n")
		sb.WriteString(strings.Repeat("word ", 100))
		sb.WriteString("\n")
	}

	c := New(2200)
	chunks := c.Chunk(sb.String())

	assert.GreaterOrEqual(t, len(chunks), 4)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Markdown), 2200)
	}
}

func TestSummarize_CollapsesWhitespaceAndTruncates(t *testing.T) {
	s := Summarize("a  b\t\tc\n\nd", 100)
	assert.Equal(t, "a b c d", s)

	long := Summarize(strings.Repeat("word ", 500), 500)
	assert.LessOrEqual(t, len(long), 500)
	assert.NotContains(t, long, "  ")
}

func TestSummarize_TruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes; a limit landing mid-rune must back up rather
	// than emit invalid UTF-8.
	s := Summarize(strings.Repeat("é", 300), 9)
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, strings.Repeat("é", 4), s)
}

func TestChunk_FallbackKeepsRunesIntact(t *testing.T) {
	// Ideographic spaces (U+3000, three bytes each) are trim-empty, so
	// they force the size fallback; with a budget that is not a
	// multiple of three, no slice may cut through a rune.
	md := strings.Repeat("　", 50)

	c := New(7)
	chunks := c.Chunk(md)

	require.NotEmpty(t, chunks)
	var joined strings.Builder
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Markdown))
		joined.WriteString(ch.Markdown)
	}
	assert.Equal(t, md, joined.String())
}

func TestSummarize_DefaultLimit(t *testing.T) {
	s := Summarize(strings.Repeat("x ", 1000), 0)
	assert.Len(t, s, SummaryLimit)
}

func TestSummaries_PreservesIndices(t *testing.T) {
	c := New(20)
	chunks := c.Chunk("## A\none two\n## B\nthree four")
	sums := Summaries(chunks, 500)

	require.Len(t, sums, len(chunks))
	for i, s := range sums {
		assert.Equal(t, chunks[i].Index, s.Index)
		assert.LessOrEqual(t, len(s.Text), 500)
	}
}

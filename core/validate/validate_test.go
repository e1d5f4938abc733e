package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/codecapsule/core"
)

func validCapsule() *core.GeneratedCapsule {
	return &core.GeneratedCapsule{
		Title:       "A Capsule",
		Description: "What this capsule teaches.",
		Pages: []core.GeneratedPage{
			{Page: 1, PageTitle: "Intro", Body: "body one"},
			{Page: 2, PageTitle: "Details", Body: "body two"},
		},
	}
}

func TestCapsule_Valid(t *testing.T) {
	assert.NoError(t, Capsule(validCapsule()))
}

func TestCapsule_RejectsMissingFields(t *testing.T) {
	c := &core.GeneratedCapsule{}
	err := Capsule(c)
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Violations, "title is empty")
	assert.Contains(t, ve.Violations, "description is empty")
	assert.Contains(t, ve.Violations, "pages is empty")
}

func TestCapsule_RejectsOversizedFields(t *testing.T) {
	c := validCapsule()
	c.Title = strings.Repeat("t", MaxTitleLen+1)
	c.Description = strings.Repeat("d", MaxDescriptionLen+1)
	c.Pages[0].PageTitle = strings.Repeat("p", MaxPageTitleLen+1)

	err := Capsule(c)
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Violations, 3)
}

func TestCapsule_RejectsBadPages(t *testing.T) {
	c := validCapsule()
	c.Pages[0].Page = 0
	c.Pages[1].Body = ""

	err := Capsule(c)
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Violations, "pages[0].page must be a positive integer")
	assert.Contains(t, ve.Violations, "pages[1].body is empty")
}

func TestCapsule_PageTitleAtLimitAccepted(t *testing.T) {
	c := validCapsule()
	c.Pages[0].PageTitle = strings.Repeat("p", MaxPageTitleLen)
	assert.NoError(t, Capsule(c))
}

func TestCapsule_NilCandidate(t *testing.T) {
	assert.Error(t, Capsule(nil))
}

func TestRenumber_ForcesSequentialPages(t *testing.T) {
	c := &core.GeneratedCapsule{
		Pages: []core.GeneratedPage{
			{Page: 5, PageTitle: "x", Body: "y"},
			{Page: 5, PageTitle: "x", Body: "y"},
			{Page: -1, PageTitle: "x", Body: "y"},
		},
	}
	Renumber(c)
	for i, p := range c.Pages {
		assert.Equal(t, i+1, p.Page)
	}
}

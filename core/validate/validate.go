// Package validate checks the generator's output against the capsule
// structural contract. The check is structural only; page content is
// never inspected semantically.
package validate

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// Structural limits. The generator is instructed to keep page titles
// under 60 chars; validation is deliberately more lenient.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxPageTitleLen   = 120
)

// Error aggregates every structural violation found in a candidate.
// The pipeline does not attempt partial recovery or per-page retry.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("generated capsule failed validation: %s", strings.Join(e.Violations, "; "))
}

// Capsule validates the candidate against the structural contract.
// A nil return means the candidate is acceptable as-is (before
// renumbering, which the pipeline applies regardless).
func Capsule(c *core.GeneratedCapsule) error {
	var violations []string

	if c == nil {
		return &Error{Violations: []string{"capsule is missing"}}
	}
	if c.Title == "" {
		violations = append(violations, "title is empty")
	} else if len(c.Title) > MaxTitleLen {
		violations = append(violations, fmt.Sprintf("title exceeds %d chars", MaxTitleLen))
	}
	if c.Description == "" {
		violations = append(violations, "description is empty")
	} else if len(c.Description) > MaxDescriptionLen {
		violations = append(violations, fmt.Sprintf("description exceeds %d chars", MaxDescriptionLen))
	}
	if len(c.Pages) == 0 {
		violations = append(violations, "pages is empty")
	}
	for i, p := range c.Pages {
		if p.Page <= 0 {
			violations = append(violations, fmt.Sprintf("pages[%d].page must be a positive integer", i))
		}
		if p.PageTitle == "" {
			violations = append(violations, fmt.Sprintf("pages[%d].page_title is empty", i))
		} else if len(p.PageTitle) > MaxPageTitleLen {
			violations = append(violations, fmt.Sprintf("pages[%d].page_title exceeds %d chars", i, MaxPageTitleLen))
		}
		if p.Body == "" {
			violations = append(violations, fmt.Sprintf("pages[%d].body is empty", i))
		}
	}

	if len(violations) > 0 {
		return &Error{Violations: violations}
	}
	return nil
}

// Renumber forces page numbers to 1..N in list order. The generator's
// own numbering is not trusted, whatever it returned.
func Renumber(c *core.GeneratedCapsule) {
	for i := range c.Pages {
		c.Pages[i].Page = i + 1
	}
}

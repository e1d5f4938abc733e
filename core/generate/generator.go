// Package generate implements the Generator boundary: it shapes the
// request payload for an OpenAI-compatible chat model, requests
// JSON-only output, and parses the single returned JSON document.
// The component has no control flow beyond request shaping and
// response parsing.
package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// rawSampleLimit bounds how much model output an error may carry.
// Never log full content; article data stays out of diagnostics.
const rawSampleLimit = 200

// Error is a generation failure: either the external call failed or the
// returned text was not valid JSON. RawSample is a truncated prefix of
// the model output, empty for transport errors.
type Error struct {
	RawSample string
	Err       error
}

func (e *Error) Error() string {
	if e.RawSample != "" {
		return fmt.Sprintf("generation returned invalid JSON (sample %q): %v", e.RawSample, e.Err)
	}
	return fmt.Sprintf("generation call failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// parseResponse decodes the model's reply into a GeneratedCapsule.
// Anything that is not a single JSON object is a generation error.
func parseResponse(raw string) (*core.GeneratedCapsule, error) {
	trimmed := strings.TrimSpace(raw)
	var out core.GeneratedCapsule
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, &Error{RawSample: truncate(trimmed, rawSampleLimit), Err: err}
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

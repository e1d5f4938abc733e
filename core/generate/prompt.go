package generate

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// systemPrompt constrains tone and format for every generation call.
const systemPrompt = `You are a senior technical editor who transforms articles into structured learning capsules that guide learners in a step-by-step manner.
- Produce concise, accurate, cohesive, well-formatted Markdown.
- Keep code fences and lists where appropriate.
- Be informative to fill missing information while avoiding hallucination.
- Use neutral tone.
`

// requestPayload is the user-message body: task marker, source URL, full
// markdown, chunk digests, and the required output schema with rules.
type requestPayload struct {
	Task            string              `json:"task"`
	URL             string              `json:"url"`
	ArticleMarkdown string              `json:"article_markdown"`
	Chunks          []core.ChunkSummary `json:"chunks"`
	RequiredSchema  requiredSchema      `json:"required_schema"`
	Rules           []string            `json:"rules"`
}

type requiredSchema struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Pages       []requiredPageSchema `json:"pages"`
}

type requiredPageSchema struct {
	Page      string `json:"page"`
	PageTitle string `json:"page_title"`
	Body      string `json:"body"`
}

// buildUserPayload serializes the generation request to a single JSON
// user message.
func buildUserPayload(input core.GenerationInput) (string, error) {
	payload := requestPayload{
		Task:            "Create capsule",
		URL:             input.URL,
		ArticleMarkdown: input.Markdown,
		Chunks:          input.ChunkSummaries,
		RequiredSchema: requiredSchema{
			Title:       "string",
			Description: "string",
			Pages: []requiredPageSchema{{
				Page:      "number",
				PageTitle: "string",
				Body:      "markdown string",
			}},
		},
		Rules: []string{
			"Return strict JSON only with keys: title, description, pages",
			"pages must start at page = 1 and be sequential",
			"page_title <= 60 chars; body is Markdown",
			"No commentary outside JSON",
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling generation request: %w", err)
	}
	return string(data), nil
}

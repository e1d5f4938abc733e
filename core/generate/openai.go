package generate

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// Settings configures the OpenAI-compatible generator. BaseURL makes the
// client work against any compatible endpoint (DeepSeek, Azure, local).
type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// temperature is kept low: the capsule structure should be stable for
// the same article, not creative.
const temperature = 0.3

// OpenAIGenerator implements core.Generator using the official openai-go
// SDK (chat completions, JSON-object response format).
type OpenAIGenerator struct {
	model string
	opts  []option.RequestOption
}

// NewOpenAIGenerator validates settings and builds a generator.
func NewOpenAIGenerator(cfg Settings) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("generator model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIGenerator{model: cfg.Model, opts: opts}, nil
}

// Generate sends the article and chunk digests to the model and parses
// the structured reply. The caller's context bounds the call; there are
// no retries at this layer.
func (g *OpenAIGenerator) Generate(ctx context.Context, input core.GenerationInput) (*core.GeneratedCapsule, error) {
	user, err := buildUserPayload(input)
	if err != nil {
		return nil, &Error{Err: err}
	}

	client := openai.NewClient(g.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, &Error{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Err: errors.New("model returned no choices")}
	}
	return parseResponse(resp.Choices[0].Message.Content)
}

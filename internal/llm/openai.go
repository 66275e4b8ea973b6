package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"medflow-backend/config"
)

// GenerationConfig carries the sampling parameters of one request. A zero
// TopP leaves the service default in place.
type GenerationConfig struct {
	Temperature float32
	TopP        float32
}

// Client is the text-generation service boundary.
type Client interface {
	Generate(ctx context.Context, prompt string, gen GenerationConfig) (string, error)
}

// ErrEmptyResponse is returned when the service answers without any choice.
var ErrEmptyResponse = errors.New("text generation returned no choices")

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint. The
// default base URL points at Gemini's compatibility layer.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs a client from configuration. An empty API key
// is accepted; every call then fails at the service.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

// Model returns the model identifier sent with every request.
func (c *OpenAIClient) Model() string { return c.model }

// Generate sends the prompt as a single user turn and returns the text of
// the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, gen GenerationConfig) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: gen.Temperature,
		TopP:        gen.TopP,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

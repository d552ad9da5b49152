// Package openai drives any OpenAI-compatible chat completion endpoint
// (OpenAI itself, Groq, local gateways) as an ai.Generator.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
)

const (
	// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
	GroqBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel = "llama-3.1-8b-instant"
)

type completer interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator sends JSON-mode chat completions at temperature 0.
type Generator struct {
	client completer
	model  string
	logger *zap.Logger
}

// NewGenerator builds a generator for the endpoint at baseURL. An empty baseURL targets Groq.
func NewGenerator(apiKey, baseURL, model string, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai-compatible api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL == "" {
		baseURL = GroqBaseURL
	}
	cfg.BaseURL = baseURL

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: message})

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: 0,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			g.logger.Warn("rate limited by openai-compatible endpoint", zap.String("model", g.model))
		}
		return "", fmt.Errorf("%w: chat completion: %w", ai.ErrUpstreamUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", ai.ErrUpstreamUnavailable)
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", fmt.Errorf("%w: chat completion returned empty content", ai.ErrUpstreamUnavailable)
	}
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

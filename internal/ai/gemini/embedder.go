package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/ats-scorer/internal/ai"
)

const defaultEmbeddingModel = "text-embedding-004"

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder encodes text into dense vectors with a Gemini embedding model.
type Embedder struct {
	models contentEmbedder
	model  string
	logger *zap.Logger
}

func NewEmbedder(client *genai.Client, model string, logger *zap.Logger) *Embedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{models: client.Models, model: model, logger: logger}
}

// Encode returns the embedding of text. Failures wrap ai.ErrUpstreamUnavailable.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.models == nil {
		return nil, fmt.Errorf("%w: gemini embedder is not initialized", ai.ErrUpstreamUnavailable)
	}

	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed content: %w", ai.ErrUpstreamUnavailable, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrUpstreamUnavailable, errors.New("gemini api returned no embeddings"))
	}

	e.logger.Debug("gemini embed content",
		zap.Int("text_length", len(text)),
		zap.Int("dimensions", len(resp.Embeddings[0].Values)),
	)
	return resp.Embeddings[0].Values, nil
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

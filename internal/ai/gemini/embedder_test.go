package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/ats-scorer/internal/ai"
)

type fakeModels struct {
	resp     *genai.EmbedContentResponse
	err      error
	lastText string
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastText = contents[0].Parts[0].Text
	return f.resp, f.err
}

func TestEmbedderEncode(t *testing.T) {
	models := &fakeModels{resp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.1, 0.2}}},
	}}
	e := &Embedder{models: models, model: "text-embedding-004", logger: zap.NewNop()}

	vec, err := e.Encode(context.Background(), "python")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, "python", models.lastText)
}

func TestEmbedderEncodeFailure(t *testing.T) {
	e := &Embedder{models: &fakeModels{err: errors.New("boom")}, logger: zap.NewNop()}

	_, err := e.Encode(context.Background(), "python")
	assert.ErrorIs(t, err, ai.ErrUpstreamUnavailable)

	e = &Embedder{models: &fakeModels{resp: &genai.EmbedContentResponse{}}, logger: zap.NewNop()}
	_, err = e.Encode(context.Background(), "python")
	assert.ErrorIs(t, err, ai.ErrUpstreamUnavailable)
}

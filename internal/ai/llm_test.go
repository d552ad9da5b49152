package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
	calls       int
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func TestLLMExtractResume(t *testing.T) {
	stub := &stubGenerator{response: `{"name": "Jane Doe", "email": "jane@example.com", "skills": ["Go"], "education": ["B.Tech"], "experience_years": 3}`}
	llm := NewLLM(stub, zap.NewNop(), 0)
	llm.now = func() time.Time { return time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC) }

	got, err := llm.ExtractEntities(context.Background(), "Jane Doe\nGo developer", KindResume)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, 3.0, got.ExperienceYears)
	assert.Contains(t, stub.lastMessage, "Jane Doe\nGo developer")
	assert.Contains(t, stub.lastMessage, "October 2025")
	assert.Contains(t, stub.lastSystem, "named-entity extractor")
}

func TestLLMExtractJDDropsResumeFields(t *testing.T) {
	stub := &stubGenerator{response: `{"name": "Acme", "skills": ["Kafka"], "education": [], "experience_years": 5}`}
	llm := NewLLM(stub, nil, 50)

	got, err := llm.ExtractEntities(context.Background(), "We use Kafka", KindJD)
	require.NoError(t, err)
	assert.Empty(t, got.Name)
	assert.Zero(t, got.ExperienceYears)
	assert.Equal(t, []string{"Kafka"}, got.Skills)
	assert.NotContains(t, stub.lastMessage, "experience_years")
}

func TestLLMExtractBlankTextSkipsModel(t *testing.T) {
	stub := &stubGenerator{}
	llm := NewLLM(stub, nil, 0)

	got, err := llm.ExtractEntities(context.Background(), "  \n ", KindJD)
	require.NoError(t, err)
	assert.Empty(t, got.Skills)
	assert.Zero(t, stub.calls)
}

func TestLLMWrapsUpstreamErrors(t *testing.T) {
	stub := &stubGenerator{err: errors.New("connection reset")}
	llm := NewLLM(stub, nil, 0)

	_, err := llm.Reconcile(context.Background(), ReconcileInput{NERSkills: []string{"Go"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLLMReconcileRendersLists(t *testing.T) {
	stub := &stubGenerator{response: `{"skills": ["Python"], "education": ["Master's"]}`}
	llm := NewLLM(stub, nil, 0)

	got, err := llm.Reconcile(context.Background(), ReconcileInput{
		NERSkills:    []string{"python"},
		LLMSkills:    []string{"Python"},
		LLMEducation: []string{"Master's"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Python"}, got.Skills)
	assert.Contains(t, stub.lastMessage, `- Skills: ["python"]`)
	assert.Contains(t, stub.lastMessage, `- Education: []`)
	assert.Contains(t, stub.lastMessage, `- Education: ["Master's"]`)
}

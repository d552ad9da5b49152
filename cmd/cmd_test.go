package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/entities"
	"github.com/spigell/ats-scorer/internal/experience"
	"github.com/spigell/ats-scorer/internal/matcher"
	"github.com/spigell/ats-scorer/internal/pipeline"
	"github.com/spigell/ats-scorer/internal/scoring"
)

func TestGetConfigAppliesDefaults(t *testing.T) {
	config, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini", config.LLM.Provider)
	assert.InDelta(t, 65, config.Policy.FitThreshold, 1e-9)
	assert.InDelta(t, 0.75, config.Policy.SemanticThreshold, 1e-9)
	assert.InDelta(t, 50, config.Policy.MaxExperienceYears, 1e-9)
	assert.Equal(t, "ats.batch", config.Worker.Queue)
}

func TestGetConfigRejectsUnknownProvider(t *testing.T) {
	viper.Set("llm.provider", "claude")
	t.Cleanup(func() { viper.Set("llm.provider", "gemini") })

	_, err := getConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider")
}

func TestPolicyFromConfig(t *testing.T) {
	policy := policyFromConfig(&PolicyConfig{FitThreshold: 70})
	assert.InDelta(t, 70, policy.FitThreshold, 1e-9)
	assert.Equal(t, scoring.DefaultPolicy().Weights, policy.Weights)

	assert.Equal(t, scoring.DefaultPolicy(), policyFromConfig(nil))
}

func TestNewLLM(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		llm, err := newLLM(nil, &LLMConfig{Provider: "gemini"}, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, llm)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := newLLM(nil, &LLMConfig{Enabled: true, Provider: "bard"}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported llm provider")
	})

	t.Run("openai without key", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := newLLM(nil, &LLMConfig{Enabled: true, Provider: "openai"}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GROQ_API_KEY")
	})

	t.Run("openai with key", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "test-key")

		llm, err := newLLM(nil, &LLMConfig{Enabled: true, Provider: "openai"}, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, llm)
	})
}

func TestNewExtractorWithoutCollaborators(t *testing.T) {
	config := &Config{
		Policy: &PolicyConfig{MaxExperienceYears: 50},
		NER:    &NERConfig{Enabled: false, URL: "http://localhost:8000"},
	}

	statuses := extractorStatuses(newExtractor(config, nil, zap.NewNop()))

	enabled := map[string]bool{}
	for _, st := range statuses {
		enabled[st.Name] = st.Enabled
	}
	assert.True(t, enabled[entities.SourceKeywords])
	assert.True(t, enabled[entities.SourceSections])
	assert.False(t, enabled[entities.SourceTrainedNER])
	assert.False(t, enabled[entities.SourcePretrainedNER])
	assert.False(t, enabled[entities.SourceLLM])
}

func TestNewLoaderWithoutS3(t *testing.T) {
	loader, err := newLoader(context.Background(), &S3Config{}, zap.NewNop())
	require.NoError(t, err)

	parsed := loader.Load(context.Background(), "s3://bucket/resume.pdf")
	assert.False(t, parsed.Success)
	assert.Contains(t, parsed.Error, "object storage is not configured")
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jd.txt")
	require.NoError(t, os.WriteFile(path, []byte("Requirements: 3+ years of Go"), 0o600))

	loader := document.NewLoader(nil, zap.NewNop())

	text, err := loadText(context.Background(), loader, path)
	require.NoError(t, err)
	assert.Equal(t, "Requirements: 3+ years of Go", text)

	_, err = loadText(context.Background(), loader, " ")
	require.Error(t, err)

	_, err = loadText(context.Background(), loader, filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestLoadResumesKeepsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "alice.txt")
	require.NoError(t, os.WriteFile(good, []byte("Alice Smith\nGo developer"), 0o600))

	docs := loadResumes(context.Background(), document.NewLoader(nil, nil),
		[]string{good, filepath.Join(dir, "bob.txt")}, zap.NewNop())

	require.Len(t, docs, 2)
	assert.Equal(t, "alice.txt", docs[0].Name)
	assert.NoError(t, docs[0].Err)
	assert.Equal(t, "bob.txt", docs[1].Name)
	require.Error(t, docs[1].Err)
	assert.Contains(t, docs[1].Err.Error(), "parsing failed: file not found")
}

func TestHandleAction(t *testing.T) {
	report := &pipeline.BatchReport{
		ID:    "batch-1",
		Total: 1,
		Items: []pipeline.BatchItem{{Filename: "bob.txt", Error: "parsing failed"}},
	}

	assert.ErrorIs(t, handleAction(PromptExit, zap.NewNop(), report), errExit)
	assert.NoError(t, handleAction(PromptReport, zap.NewNop(), report))
	assert.NoError(t, handleAction(PromptJSON, zap.NewNop(), report))
	assert.Error(t, handleAction("nope", zap.NewNop(), report))
}

func TestWriteText(t *testing.T) {
	result := &pipeline.Result{
		CandidateName:  "Jane Doe",
		CandidateEmail: "jane@example.com",
		CandidatePhone: pipeline.NotFound,
		JDYears:        experience.Years(3),
		ResumeYears:    4.5,
		Skills: matcher.SkillMatch{
			Percent: 50,
			Matched: []string{"go ✓"},
			Missing: []string{"kafka"},
		},
		Education:  matcher.EducationMatch{Score: 100, Explanation: "No specific education requirement"},
		FinalScore: 71.5,
		Decision:   scoring.Fit,
		Status:     scoring.StatusShortlist,
	}

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, result))

	out := buf.String()
	assert.Contains(t, out, "Jane Doe <jane@example.com>")
	assert.Contains(t, out, "Final score: 71.50")
	assert.Contains(t, out, "(3 required, 4.5 found)")
	assert.Contains(t, out, "Matched:     go ✓")
	assert.Contains(t, out, "Missing:     kafka")
}

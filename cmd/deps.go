package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/ai/gemini"
	"github.com/spigell/ats-scorer/internal/ai/openai"
	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/entities"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/ner"
	"github.com/spigell/ats-scorer/internal/pipeline"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/secrets"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
)

// services are the long-lived collaborators shared by every command.
type services struct {
	scorer *pipeline.Service
	loader *document.Loader
}

func newServices(ctx context.Context, config *Config, log *zap.Logger) (*services, error) {
	geminiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Embedding.APIKeyFile,
		Env:  []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.api-key-file or GEMINI_API_KEY)", err)
	}

	client, err := gemini.NewClient(ctx, geminiKey)
	if err != nil {
		return nil, err
	}

	embedder := gemini.NewEmbedder(client, config.Embedding.Model,
		logger.WithCommonFields(log, providerGemini, config.Embedding.Model))

	llm, err := newLLM(client, config.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("building llm: %w", err)
	}

	extractor := newExtractor(config, llm, log)

	for _, st := range extractorStatuses(extractor) {
		log.Debug("entity source",
			zap.String("source", st.Name),
			zap.Bool("enabled", st.Enabled),
			zap.String("reason", st.Reason),
			zap.Any("details", st.Details),
		)
	}

	scorer, err := pipeline.New(pipeline.Deps{
		Extractor:         extractor,
		Embedder:          embedder,
		SemanticThreshold: config.Policy.SemanticThreshold,
		Policy:            policyFromConfig(config.Policy),
		SectionYOE:        config.Policy.SectionYOE,
		SectionMinLength:  config.Policy.SectionMinLength,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	loader, err := newLoader(ctx, config.S3, log)
	if err != nil {
		return nil, err
	}

	return &services{scorer: scorer, loader: loader}, nil
}

// newLLM returns nil when the llm is disabled.
func newLLM(client *genai.Client, cfg *LLMConfig, log *zap.Logger) (*ai.LLM, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	genLogger := logger.WithCommonFields(log, provider, cfg.Model).With(
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	var generator ai.Generator
	switch provider {
	case "", providerGemini:
		generator = gemini.NewGenerator(client, cfg.Model, cfg.MaxRetries, genLogger)
	case providerOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai-compatible api key",
			File: cfg.APIKeyFile,
			Env:  []string{"GROQ_API_KEY", "OPENAI_API_KEY"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set llm.api-key-file or GROQ_API_KEY)", err)
		}

		g, err := openai.NewGenerator(apiKey, cfg.BaseURL, cfg.Model, genLogger)
		if err != nil {
			return nil, err
		}
		generator = g
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	return ai.NewLLM(generator, genLogger, cfg.MaxLogLength), nil
}

func newExtractor(config *Config, llm *ai.LLM, log *zap.Logger) *entities.Extractor {
	cfg := entities.Config{
		Now:                time.Now,
		MaxExperienceYears: config.Policy.MaxExperienceYears,
		SectionMinLength:   config.Policy.SectionMinLength,
		Logger:             log,
	}

	if n := config.NER; n != nil && n.Enabled && n.URL != "" {
		cfg.Annotator = ner.New(log.With(zap.String("ner_url", n.URL)), n.URL, n.Timeout)
		cfg.TrainedModel = n.TrainedModel
		cfg.PretrainedModel = n.PretrainedModel
	}

	// A typed nil would disable neither source.
	if llm != nil {
		cfg.LLM = llm
		cfg.Reconciler = entities.FallbackReconciler{
			Primary:  entities.RemoteReconciler{Model: llm},
			Fallback: entities.LocalReconciler{},
			Logger:   log,
		}
	}

	return entities.New(cfg)
}

func extractorStatuses(e *entities.Extractor) []entities.Status {
	jd, resume := e.Sources()
	return append(jd, resume...)
}

func newLoader(ctx context.Context, cfg *S3Config, log *zap.Logger) (*document.Loader, error) {
	if cfg == nil || (cfg.Region == "" && cfg.Endpoint == "") {
		return document.NewLoader(nil, log), nil
	}

	client, err := document.NewS3Client(ctx, document.S3Config{
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return nil, err
	}

	return document.NewLoader(client, log), nil
}

func policyFromConfig(cfg *PolicyConfig) scoring.Policy {
	policy := scoring.DefaultPolicy()
	if cfg != nil && cfg.FitThreshold > 0 {
		policy.FitThreshold = cfg.FitThreshold
	}
	return policy
}

// loadText loads uri and fails on any parse error.
func loadText(ctx context.Context, loader *document.Loader, uri string) (string, error) {
	if strings.TrimSpace(uri) == "" {
		return "", errors.New("document path is required")
	}

	parsed := loader.Load(ctx, uri)
	if !parsed.Success {
		return "", fmt.Errorf("loading %s: %s", uri, parsed.Error)
	}
	return parsed.Text, nil
}

package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/utils"
)

const defaultMaxLogLength = 200

var (
	//go:embed prompts/extract_system.md
	extractSystemPrompt string
	//go:embed prompts/extract_jd.md
	extractJDTemplate string
	//go:embed prompts/extract_resume.md
	extractResumeTemplate string
	//go:embed prompts/reconcile_system.md
	reconcileSystemPrompt string
	//go:embed prompts/reconcile.md
	reconcileTemplate string
)

// LLM turns a chat Generator into an EntityExtractor and an EntityReconciler.
type LLM struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

func NewLLM(generator Generator, logger *zap.Logger, maxLogLength int) *LLM {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLM{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}
}

// ExtractEntities asks the model for the entities of one document. Contact
// details and experience are discarded for job descriptions.
func (l *LLM) ExtractEntities(ctx context.Context, text string, kind DocumentKind) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return &Extraction{Skills: []string{}, Education: []string{}}, nil
	}

	template := extractJDTemplate
	if kind == KindResume {
		template = extractResumeTemplate
	}
	message := strings.ReplaceAll(template, "{{TEXT}}", text)
	message = strings.ReplaceAll(message, "{{CURRENT_DATE}}", l.now().Format("January 2006"))

	raw, err := l.generate(ctx, "extract entities", extractSystemPrompt, message, zap.String(logger.FieldDocumentKind, string(kind)))
	if err != nil {
		return nil, err
	}

	extraction, err := DecodeExtraction(raw)
	if err != nil {
		return nil, err
	}

	if kind != KindResume {
		extraction.Name, extraction.Email, extraction.Phone = "", "", ""
		extraction.ExperienceYears = 0
	}
	return extraction, nil
}

// Reconcile asks the model to merge the entity lists of all sources.
func (l *LLM) Reconcile(ctx context.Context, in ReconcileInput) (*Reconciled, error) {
	message := reconcileTemplate
	for placeholder, list := range map[string][]string{
		"{{NER_SKILLS}}":    in.NERSkills,
		"{{NER_EDUCATION}}": in.NEREducation,
		"{{LLM_SKILLS}}":    in.LLMSkills,
		"{{LLM_EDUCATION}}": in.LLMEducation,
	} {
		message = strings.ReplaceAll(message, placeholder, renderList(list))
	}

	raw, err := l.generate(ctx, "reconcile entities", reconcileSystemPrompt, message)
	if err != nil {
		return nil, err
	}

	return DecodeReconciled(raw)
}

func (l *LLM) generate(ctx context.Context, op, system, message string, fields ...zap.Field) (string, error) {
	if l.generator == nil {
		return "", fmt.Errorf("%w: generator is not configured", ErrUpstreamUnavailable)
	}

	l.logger.Debug(op+" request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, l.maxLogLen)),
	)...)

	raw, err := l.generator.GenerateContent(ctx, system, message)
	if err != nil {
		if !errors.Is(err, ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}
		return "", err
	}

	l.logger.Debug(op+" response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, l.maxLogLen)),
	)...)

	return raw, nil
}

func renderList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

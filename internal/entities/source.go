package entities

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
)

// Source names.
const (
	SourceKeywords      = "keywords"
	SourceSections      = "sections"
	SourceTrainedNER    = "ner_trained"
	SourcePretrainedNER = "ner_pretrained"
	SourceLLM           = "llm"
)

// Document is the text a source reads.
type Document struct {
	Kind ai.DocumentKind
	Text string
}

// Findings is what one source extracted. Sources fill only the fields they understand.
type Findings struct {
	Skills          []string
	Education       []string
	Names           []string
	Emails          []string
	Phones          []string
	Companies       []string
	Designations    []string
	Locations       []string
	ExperienceYears float64
}

// Source is a single extraction step.
type Source interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Extract(ctx context.Context, doc Document) (*Findings, Step, error)
}

// Step summarises the output of one source.
type Step struct {
	Skills    int
	Education int
	Fields    int
}

func stepOf(f *Findings) Step {
	return Step{
		Skills:    len(f.Skills),
		Education: len(f.Education),
		Fields:    len(f.Names) + len(f.Emails) + len(f.Phones) + len(f.Companies) + len(f.Designations) + len(f.Locations),
	}
}

// Status represents runtime information about a source.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by every source.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

// DisableByName marks the source with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Source, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the enabled sources in order and returns their findings keyed by
// source name. A failing source is logged and contributes nothing; extraction
// never aborts because one collaborator is down. Only context cancellation is
// returned as an error.
func Run(ctx context.Context, logger *zap.Logger, steps []Source, doc Document) (map[string]*Findings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make(map[string]*Findings, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !step.IsEnabled() {
			logger.Debug("source disabled", zap.String("name", step.Name()))
			continue
		}

		findings, info, err := step.Extract(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("source failed, continuing without it",
				zap.String("name", step.Name()),
				zap.Error(err),
			)
			findings, info = &Findings{}, Step{}
		}

		logger.Info("extraction step",
			zap.String("name", step.Name()),
			zap.Int("skills", info.Skills),
			zap.Int("education", info.Education),
			zap.Int("fields", info.Fields),
		)

		results[step.Name()] = findings
	}

	return results, nil
}

// Describe returns status entries for the provided sources.
func Describe(steps []Source) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

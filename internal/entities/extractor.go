package entities

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/ner"
	"github.com/spigell/ats-scorer/internal/textnorm"
)

// Config wires the collaborators of an Extractor. Nil collaborators disable
// the sources that need them.
type Config struct {
	Annotator       ner.Annotator
	TrainedModel    string
	PretrainedModel string
	LLM             ai.EntityExtractor
	// Reconciler defaults to LocalReconciler.
	Reconciler Reconciler

	Now                func() time.Time
	MaxExperienceYears float64
	// SectionMinLength is the shortest requirements section used in place of the full JD.
	SectionMinLength int

	Logger *zap.Logger
}

// Extractor turns JD and resume text into entity bags. It holds no per-call
// state and is safe for concurrent use.
type Extractor struct {
	jdSteps     []Source
	resumeSteps []Source
	reconciler  Reconciler
	logger      *zap.Logger

	sectionMinLength int
}

func New(cfg Config) *Extractor {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	reconciler := cfg.Reconciler
	if reconciler == nil {
		reconciler = LocalReconciler{}
	}

	llm := NewLLM(cfg.LLM)
	trained := NewTrainedNER(cfg.Annotator, cfg.TrainedModel)

	return &Extractor{
		jdSteps: []Source{
			NewKeywords(),
			trained,
			llm,
		},
		resumeSteps: []Source{
			NewSections(cfg.Now, cfg.MaxExperienceYears),
			NewKeywords(),
			trained,
			NewPretrainedNER(cfg.Annotator, cfg.PretrainedModel),
			llm,
		},
		reconciler:       reconciler,
		logger:           log,
		sectionMinLength: cfg.SectionMinLength,
	}
}

// WithLogger returns a copy of the extractor that logs to logger.
func (e *Extractor) WithLogger(log *zap.Logger) *Extractor {
	if log == nil {
		return e
	}
	c := *e
	c.logger = log
	return &c
}

// Sources returns the status of the JD and resume sources.
func (e *Extractor) Sources() (jd, resume []Status) {
	return Describe(e.jdSteps), Describe(e.resumeSteps)
}

// ExtractJD returns the skills and education required by a job description.
// Extraction reads the requirements section when one is found and the full
// text otherwise.
func (e *Extractor) ExtractJD(ctx context.Context, text string) (Bag, error) {
	if textnorm.IsBlank(text) {
		return Bag{Skills: []string{}, Education: []string{}}, nil
	}

	if section, ok := textnorm.RequirementsSection(text, e.sectionMinLength); ok {
		text = section
	}

	log := logger.WithFields(e.logger, zap.String(logger.FieldDocumentKind, string(ai.KindJD)))
	found, err := Run(ctx, log, e.jdSteps, Document{Kind: ai.KindJD, Text: text})
	if err != nil {
		return Bag{}, err
	}

	return e.reconcile(ctx, found)
}

// ExtractResume returns the skills, education and profile fields of a resume.
func (e *Extractor) ExtractResume(ctx context.Context, text string) (*Profile, error) {
	if textnorm.IsBlank(text) {
		return &Profile{Skills: []string{}, Education: []string{}}, nil
	}

	log := logger.WithFields(e.logger, zap.String(logger.FieldDocumentKind, string(ai.KindResume)))
	found, err := Run(ctx, log, e.resumeSteps, Document{Kind: ai.KindResume, Text: text})
	if err != nil {
		return nil, err
	}

	bag, err := e.reconcile(ctx, found)
	if err != nil {
		return nil, err
	}

	get := func(name string) *Findings {
		if f, ok := found[name]; ok && f != nil {
			return f
		}
		return &Findings{}
	}
	pretrained, sections, trained, llm := get(SourcePretrainedNER), get(SourceSections), get(SourceTrainedNER), get(SourceLLM)

	profile := &Profile{
		Name:        resolveField(pretrained.Names, sections.Names, trained.Names, llm.Names),
		Email:       resolveField(trained.Emails, sections.Emails, llm.Emails),
		Phone:       resolveField(sections.Phones, llm.Phones),
		Skills:      bag.Skills,
		Education:   bag.Education,
		Companies:   Clean(union(trained.Companies, pretrained.Companies, sections.Companies)),
		Designation: Clean(union(trained.Designations, sections.Designations)),
		Location:    Clean(union(trained.Locations, pretrained.Locations)),
	}

	profile.ExperienceYears = sections.ExperienceYears
	if llm.ExperienceYears > 0 {
		profile.ExperienceYears = llm.ExperienceYears
	}

	log.Debug("resume profile resolved",
		zap.Bool("name", profile.Name != ""),
		zap.Bool("email", profile.Email != ""),
		zap.Bool("phone", profile.Phone != ""),
		zap.Float64("experience_years", profile.ExperienceYears),
	)

	return profile, nil
}

func (e *Extractor) reconcile(ctx context.Context, found map[string]*Findings) (Bag, error) {
	var c Candidates
	for _, name := range []string{SourceKeywords, SourceTrainedNER, SourcePretrainedNER, SourceSections} {
		if f, ok := found[name]; ok && f != nil {
			c.NERSkills = append(c.NERSkills, f.Skills...)
			c.NEREducation = append(c.NEREducation, f.Education...)
		}
	}
	if f, ok := found[SourceLLM]; ok && f != nil {
		c.LLMSkills = f.Skills
		c.LLMEducation = f.Education
	}

	bag, err := e.reconciler.Reconcile(ctx, c)
	if err != nil {
		return Bag{}, fmt.Errorf("reconcile entities: %w", err)
	}

	return Bag{Skills: Clean(bag.Skills), Education: Clean(bag.Education)}, nil
}

// resolveField returns the first value of the last non-empty candidate list.
// Candidates are ordered from least to most trusted.
func resolveField(candidates ...[]string) string {
	value := ""
	for _, list := range candidates {
		for _, v := range list {
			if v != "" {
				value = v
				break
			}
		}
	}
	return value
}

func union(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

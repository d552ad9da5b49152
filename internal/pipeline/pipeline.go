// Package pipeline scores resumes against a job description: it runs the
// extractors, matches skills and education, measures whole-document
// similarity and composes the final score.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ats-scorer/internal/entities"
	"github.com/spigell/ats-scorer/internal/experience"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/matcher"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/textnorm"
	"github.com/spigell/ats-scorer/internal/utils"
)

// NotFound is reported for candidate fields no source could fill.
const NotFound = "Not Found"

// ErrEmbeddingUnavailable aborts a scoring call whose embeddings could not be computed.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Extractor pulls entities out of both documents.
type Extractor interface {
	ExtractJD(ctx context.Context, text string) (entities.Bag, error)
	ExtractResume(ctx context.Context, text string) (*entities.Profile, error)
}

// Deps are the read-only collaborators of a Service.
type Deps struct {
	Extractor Extractor
	Embedder  matcher.Embedder
	// SemanticThreshold defaults to matcher.DefaultThreshold.
	SemanticThreshold float64
	Policy            scoring.Policy
	// SectionYOE limits the JD experience search to the requirements section.
	SectionYOE       bool
	SectionMinLength int
	Logger           *zap.Logger
}

// Service scores resume and JD pairs. It keeps no per-request state.
type Service struct {
	extractor Extractor
	matcher   *matcher.Matcher
	policy    scoring.Policy
	logger    *zap.Logger

	sectionYOE       bool
	sectionMinLength int
}

func New(deps Deps) (*Service, error) {
	if deps.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("embedder is required")
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	policy := deps.Policy
	if policy == (scoring.Policy{}) {
		policy = scoring.DefaultPolicy()
	}

	return &Service{
		extractor:        deps.Extractor,
		matcher:          matcher.New(deps.Embedder, deps.SemanticThreshold, log),
		policy:           policy,
		logger:           log,
		sectionYOE:       deps.SectionYOE,
		sectionMinLength: deps.SectionMinLength,
	}, nil
}

// Result is everything a transport needs to render one scoring call.
type Result struct {
	RequestID string `json:"request_id"`

	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	CandidatePhone string `json:"candidate_phone"`

	JDExperience experience.Result `json:"jd_experience"`
	JDYears      experience.Value  `json:"jd_yoe"`
	ResumeYears  float64           `json:"resume_yoe"`

	JDSkills     []string           `json:"jd_skills"`
	ResumeSkills []string           `json:"resume_skills"`
	Skills       matcher.SkillMatch `json:"skills"`

	JDEducation     []string               `json:"jd_education"`
	ResumeEducation []string               `json:"resume_education"`
	Education       matcher.EducationMatch `json:"education"`

	SemanticSimilarity float64 `json:"semantic_similarity"`

	Companies   []string `json:"companies"`
	Designation []string `json:"designation"`
	Location    []string `json:"location"`

	Breakdown  scoring.Breakdown `json:"breakdown"`
	FinalScore float64           `json:"final_score"`
	Decision   scoring.Decision  `json:"decision"`
	Status     string            `json:"status"`
}

// Score rates resumeText against jdText.
func (s *Service) Score(ctx context.Context, jdText, resumeText string) (*Result, error) {
	requestID := uuid.NewString()
	log := logger.WithRequest(s.logger, requestID, "")

	jdYOE := s.jdExperience(jdText)

	var (
		jdBag   entities.Bag
		profile *entities.Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bag, err := s.extractorFor(log).ExtractJD(gctx, jdText)
		if err != nil {
			return fmt.Errorf("extract jd: %w", err)
		}
		jdBag = bag
		return nil
	})
	g.Go(func() error {
		p, err := s.extractorFor(log).ExtractResume(gctx, resumeText)
		if err != nil {
			return fmt.Errorf("extract resume: %w", err)
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	jdSkills := lowerAll(jdBag.Skills)
	jdEducation := sortedUnique(jdBag.Education)

	skills, err := s.matcher.MatchSkills(ctx, profile.Skills, jdSkills)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	education := matcher.MatchEducation(profile.Education, jdEducation)

	similarity := 0.0
	if !textnorm.IsBlank(jdText) && !textnorm.IsBlank(resumeText) {
		similarity, err = s.matcher.Similarity(ctx, jdText, resumeText)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		}
	}

	breakdown := s.policy.Compose(scoring.Inputs{
		SkillMatchPct:      skills.Percent,
		SemanticSimilarity: similarity,
		JDYears:            jdYOE.MinYOE,
		ResumeYears:        profile.ExperienceYears,
		EducationScore:     education.Score,
	})

	res := &Result{
		RequestID:          requestID,
		CandidateName:      orNotFound(profile.Name),
		CandidateEmail:     orNotFound(profile.Email),
		CandidatePhone:     orNotFound(profile.Phone),
		JDExperience:       jdYOE,
		JDYears:            jdYOE.MinYOE,
		ResumeYears:        profile.ExperienceYears,
		JDSkills:           jdSkills,
		ResumeSkills:       nonNil(profile.Skills),
		Skills:             skills,
		JDEducation:        jdEducation,
		ResumeEducation:    nonNil(profile.Education),
		Education:          education,
		SemanticSimilarity: utils.Round(similarity, 3),
		Companies:          nonNil(profile.Companies),
		Designation:        nonNil(profile.Designation),
		Location:           nonNil(profile.Location),
		Breakdown:          breakdown,
		FinalScore:         breakdown.FinalScore,
		Decision:           breakdown.Decision,
		Status:             breakdown.Status,
	}

	log.Info("resume scored",
		zap.String("candidate", res.CandidateName),
		zap.Float64("final_score", res.FinalScore),
		zap.String("decision", string(res.Decision)),
		zap.Float64("skill_match", skills.Percent),
		zap.String("jd_yoe", jdYOE.MinYOE.String()),
		zap.Float64("resume_yoe", res.ResumeYears),
	)

	return res, nil
}

func (s *Service) jdExperience(text string) experience.Result {
	if s.sectionYOE {
		return experience.ExtractFromJDSection(text, s.sectionMinLength)
	}
	return experience.ExtractFromJD(text)
}

type loggerSetter interface {
	WithLogger(*zap.Logger) *entities.Extractor
}

// extractorFor attaches the request logger when the extractor supports it.
func (s *Service) extractorFor(log *zap.Logger) Extractor {
	if e, ok := s.extractor.(loggerSetter); ok {
		return e.WithLogger(log)
	}
	return s.extractor
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}

func sortedUnique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func orNotFound(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotFound
	}
	return s
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// Package scoring turns match results into a weighted 0-100 score and a
// shortlist decision.
package scoring

import (
	"math"

	"github.com/spigell/ats-scorer/internal/experience"
	"github.com/spigell/ats-scorer/internal/utils"
)

type Decision string

const (
	Fit   Decision = "FIT"
	Unfit Decision = "UNFIT"
)

const (
	StatusShortlist = "SHORTLIST FOR INTERVIEW"
	StatusReject    = "REJECT"
)

// Weights are the maximum points of each component. They sum to 100.
type Weights struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Semantic   float64 `json:"semantic"`
	Education  float64 `json:"education"`
}

// Policy holds the scoring constants.
type Policy struct {
	FitThreshold float64
	Weights      Weights
	// A skill match below PenaltyBelow percent costs PenaltyFactor points per missing percent.
	PenaltyBelow  float64
	PenaltyFactor float64
}

// DefaultPolicy returns the standard 40/30/20/10 policy with a FIT threshold of 65.
func DefaultPolicy() Policy {
	return Policy{
		FitThreshold:  65,
		Weights:       Weights{Skills: 40, Experience: 30, Semantic: 20, Education: 10},
		PenaltyBelow:  50,
		PenaltyFactor: 0.5,
	}
}

// Inputs are the facts a score is composed from.
type Inputs struct {
	SkillMatchPct      float64
	SemanticSimilarity float64
	JDYears            experience.Value
	ResumeYears        float64
	EducationScore     int
}

// Breakdown is the per-component result of Compose.
type Breakdown struct {
	SkillsScore    float64 `json:"skills_score"`
	YOEScore       float64 `json:"yoe_score"`
	SemanticScore  float64 `json:"semantic_score"`
	EducationScore float64 `json:"education_score"`
	Penalty        float64 `json:"penalty"`
	FinalScore     float64 `json:"final_score"`

	Decision Decision `json:"decision"`
	Status   string   `json:"status"`
}

// Experience tiers as fractions of the experience weight.
const (
	yoeNeutral     = 0.5
	yoeThreeQuart  = 25.0 / 30
	yoeHalf        = 18.0 / 30
	yoeFloor       = 8.0 / 30
	threeQuarters  = 0.75
	half           = 0.5
	componentPlace = 2
)

// Compose scores in. The final score is always within [0, 100].
func (p Policy) Compose(in Inputs) Breakdown {
	w := p.Weights

	skills := in.SkillMatchPct / 100 * w.Skills
	yoe := p.experienceScore(in.JDYears, in.ResumeYears)
	// anti-correlated text contributes nothing rather than a negative share
	semantic := math.Max(0, in.SemanticSimilarity) * w.Semantic
	education := float64(in.EducationScore) / 100 * w.Education

	final := skills + yoe + semantic + education

	penalty := 0.0
	if in.SkillMatchPct < p.PenaltyBelow {
		penalty = (p.PenaltyBelow - in.SkillMatchPct) * p.PenaltyFactor
		final -= penalty
	}
	final = utils.Round(math.Max(0, math.Min(100, final)), componentPlace)

	b := Breakdown{
		SkillsScore:    utils.Round(skills, componentPlace),
		YOEScore:       utils.Round(yoe, componentPlace),
		SemanticScore:  utils.Round(semantic, componentPlace),
		EducationScore: utils.Round(education, componentPlace),
		Penalty:        utils.Round(penalty, componentPlace),
		FinalScore:     final,
		Decision:       Unfit,
		Status:         StatusReject,
	}
	if final >= p.FitThreshold {
		b.Decision = Fit
		b.Status = StatusShortlist
	}
	return b
}

// experienceScore is neutral when either side is unknown, full when the
// requirement is met, and tiered below it.
func (p Policy) experienceScore(jd experience.Value, resume float64) float64 {
	w := p.Weights.Experience

	required, ok := jd.Float()
	if !ok || resume == 0 {
		return yoeNeutral * w
	}

	switch {
	case resume >= required:
		return w
	case resume >= required*threeQuarters:
		return yoeThreeQuart * w
	case resume >= required*half:
		return yoeHalf * w
	default:
		return math.Max(yoeFloor*w, resume/required*w)
	}
}

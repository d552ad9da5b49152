// Package matcher compares a resume's skills and education with the
// requirements of a job description.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/utils"
)

// DefaultThreshold is the minimum cosine similarity for a semantic skill match.
const DefaultThreshold = 0.75

// neutralSkillScore is reported when the JD lists no skills.
const neutralSkillScore = 50

// Embedder turns text into a dense vector.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// SkillMatch is the outcome of matching resume skills against JD skills.
type SkillMatch struct {
	Percent float64  `json:"match_percentage"`
	Matched []string `json:"matched_skills"`
	Missing []string `json:"missing_skills"`
}

type Matcher struct {
	embedder  Embedder
	threshold float64
	logger    *zap.Logger
}

// New creates a matcher. A nil embedder limits skill matching to exact matches.
func New(embedder Embedder, threshold float64, logger *zap.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{embedder: embedder, threshold: threshold, logger: logger}
}

// MatchSkills walks the JD skills in order. Each one is matched exactly
// (case-insensitive) against an unused resume skill, or else semantically
// against the most similar unused resume skill. A resume skill is credited
// at most once.
func (m *Matcher) MatchSkills(ctx context.Context, resume, jd []string) (SkillMatch, error) {
	if len(jd) == 0 {
		return SkillMatch{Percent: neutralSkillScore, Matched: []string{}, Missing: []string{}}, nil
	}
	if len(resume) == 0 {
		return SkillMatch{Percent: 0, Matched: []string{}, Missing: append([]string{}, jd...)}, nil
	}

	encode := m.cachedEncoder()
	used := make(map[string]bool, len(resume))
	res := SkillMatch{Matched: []string{}, Missing: []string{}}

	for _, jdSkill := range jd {
		key := strings.ToLower(strings.TrimSpace(jdSkill))

		if exact := findExact(key, resume, used); exact != "" {
			used[exact] = true
			res.Matched = append(res.Matched, jdSkill+" ✓")
			continue
		}

		if m.embedder == nil {
			res.Missing = append(res.Missing, jdSkill)
			continue
		}

		best, similarity, err := m.bestSemantic(ctx, encode, jdSkill, resume, used)
		if err != nil {
			return SkillMatch{}, err
		}

		if best != "" && similarity >= m.threshold {
			used[strings.ToLower(strings.TrimSpace(best))] = true
			res.Matched = append(res.Matched, fmt.Sprintf("%s ≈ %s (%d%%)", jdSkill, best, int(similarity*100)))
			continue
		}

		res.Missing = append(res.Missing, jdSkill)
	}

	res.Percent = utils.Round(float64(len(res.Matched))/float64(len(jd))*100, 2)

	m.logger.Debug("skills matched",
		zap.Int("jd_skills", len(jd)),
		zap.Int("resume_skills", len(resume)),
		zap.Int("matched", len(res.Matched)),
		zap.Float64("percent", res.Percent),
	)

	return res, nil
}

// Similarity returns the cosine similarity of two whole documents.
func (m *Matcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	if m.embedder == nil {
		return 0, errors.New("embedder is not configured")
	}

	va, err := m.embedder.Encode(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("encode first document: %w", err)
	}
	vb, err := m.embedder.Encode(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("encode second document: %w", err)
	}

	return Cosine(va, vb), nil
}

type encodeFunc func(ctx context.Context, text string) ([]float32, error)

// cachedEncoder memoizes Encode by exact string for the duration of one match.
func (m *Matcher) cachedEncoder() encodeFunc {
	cache := make(map[string][]float32)
	return func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := cache[text]; ok {
			return v, nil
		}
		v, err := m.embedder.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", text, err)
		}
		cache[text] = v
		return v, nil
	}
}

func (m *Matcher) bestSemantic(ctx context.Context, encode encodeFunc, jdSkill string, resume []string, used map[string]bool) (string, float64, error) {
	target, err := encode(ctx, jdSkill)
	if err != nil {
		return "", 0, err
	}

	best, bestSimilarity := "", 0.0
	for _, candidate := range resume {
		if used[strings.ToLower(strings.TrimSpace(candidate))] {
			continue
		}

		vec, err := encode(ctx, candidate)
		if err != nil {
			return "", 0, err
		}

		if similarity := Cosine(target, vec); similarity > bestSimilarity {
			best, bestSimilarity = candidate, similarity
		}
	}
	return best, bestSimilarity, nil
}

func findExact(key string, resume []string, used map[string]bool) string {
	for _, candidate := range resume {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if used[c] {
			continue
		}
		if c == key {
			return c
		}
	}
	return ""
}

// Cosine returns the cosine similarity of a and b. Empty, mismatched or zero
// vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

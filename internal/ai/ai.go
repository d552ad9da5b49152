// Package ai holds the provider-neutral contracts for LLM-backed entity
// extraction and reconciliation, plus the adapter that drives any text
// generator through them.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrUpstreamUnavailable wraps transport and API failures of an LLM or embedding provider.
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")
	// ErrMalformedResponse is returned when a model reply does not match the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed model response")
)

// DocumentKind tells extractors which document they are reading.
type DocumentKind string

const (
	KindJD     DocumentKind = "jd"
	KindResume DocumentKind = "resume"
)

// Extraction is what an LLM reports for one document. Contact fields and
// ExperienceYears are only requested for resumes.
type Extraction struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Skills          []string `json:"skills"`
	Education       []string `json:"education"`
	ExperienceYears float64  `json:"experience_years"`
}

// ReconcileInput carries the raw entity lists produced by the statistical and LLM sources.
type ReconcileInput struct {
	NERSkills    []string `json:"ner_skills"`
	NEREducation []string `json:"ner_education"`
	LLMSkills    []string `json:"llm_skills"`
	LLMEducation []string `json:"llm_education"`
}

// Reconciled is the merged, deduplicated entity set returned by a reconciler.
type Reconciled struct {
	Skills    []string `json:"skills"`
	Education []string `json:"education"`
}

// EntityExtractor pulls skills, education and (for resumes) contact details out of raw text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string, kind DocumentKind) (*Extraction, error)
}

// EntityReconciler merges entity lists from several sources into one clean set.
type EntityReconciler interface {
	Reconcile(ctx context.Context, in ReconcileInput) (*Reconciled, error)
}

// Generator sends a system instruction and a user message to a chat model and returns its text reply.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

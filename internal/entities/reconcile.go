package entities

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/ai"
)

// Candidates are the raw entity lists a reconciler merges. NER lists hold the
// union of every non-LLM source.
type Candidates struct {
	NERSkills    []string
	NEREducation []string
	LLMSkills    []string
	LLMEducation []string
}

// Reconciler merges candidate lists into one clean bag.
type Reconciler interface {
	Reconcile(ctx context.Context, c Candidates) (Bag, error)
}

// LocalReconciler takes the union of all candidates and filters it.
type LocalReconciler struct{}

func (LocalReconciler) Reconcile(_ context.Context, c Candidates) (Bag, error) {
	skills := make([]string, 0, len(c.NERSkills)+len(c.LLMSkills))
	skills = append(append(skills, c.NERSkills...), c.LLMSkills...)

	education := make([]string, 0, len(c.NEREducation)+len(c.LLMEducation))
	education = append(append(education, c.NEREducation...), c.LLMEducation...)

	return NewBag(ValidateSkills(skills), ValidateEducation(education)), nil
}

// RemoteReconciler asks a model to merge and deduplicate the candidates. The
// validation filter is applied again to whatever the model returns.
type RemoteReconciler struct {
	Model ai.EntityReconciler
}

func (r RemoteReconciler) Reconcile(ctx context.Context, c Candidates) (Bag, error) {
	if r.Model == nil {
		return Bag{}, errors.New("reconciliation model is required")
	}

	res, err := r.Model.Reconcile(ctx, ai.ReconcileInput{
		NERSkills:    c.NERSkills,
		NEREducation: c.NEREducation,
		LLMSkills:    c.LLMSkills,
		LLMEducation: c.LLMEducation,
	})
	if err != nil {
		return Bag{}, err
	}

	return NewBag(ValidateSkills(res.Skills), ValidateEducation(res.Education)), nil
}

// FallbackReconciler uses Fallback whenever Primary fails.
type FallbackReconciler struct {
	Primary  Reconciler
	Fallback Reconciler
	Logger   *zap.Logger
}

func (r FallbackReconciler) Reconcile(ctx context.Context, c Candidates) (Bag, error) {
	bag, err := r.Primary.Reconcile(ctx, c)
	if err == nil {
		return bag, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Bag{}, ctxErr
	}

	if r.Logger != nil {
		r.Logger.Warn("reconciliation failed, using fallback", zap.Error(err))
	}
	return r.Fallback.Reconcile(ctx, c)
}

// Package queue consumes batch scoring jobs from AMQP and publishes the
// resulting reports.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/pipeline"
)

// ErrBadMessage marks a message that can never be processed.
var ErrBadMessage = errors.New("bad message")

// Job asks for every resume to be scored against one job description.
type Job struct {
	ID         string   `json:"id"`
	JDURI      string   `json:"jd_uri"`
	ResumeURIs []string `json:"resume_uris"`
}

func (j Job) validate() error {
	switch {
	case strings.TrimSpace(j.JDURI) == "":
		return errors.New("jd_uri is required")
	case len(j.ResumeURIs) == 0:
		return errors.New("resume_uris is empty")
	case len(j.ResumeURIs) > pipeline.MaxBatchSize:
		return fmt.Errorf("maximum %d resumes allowed per batch, got %d", pipeline.MaxBatchSize, len(j.ResumeURIs))
	}
	return nil
}

// Loader fetches and parses documents.
type Loader interface {
	Load(ctx context.Context, uri string) document.Parsed
}

// Scorer scores a batch of resumes.
type Scorer interface {
	ScoreBatch(ctx context.Context, jdText string, resumes []pipeline.Document) (*pipeline.BatchReport, error)
}

// Handler turns a job message into a batch report.
type Handler struct {
	loader Loader
	scorer Scorer
	logger *zap.Logger
}

func NewHandler(loader Loader, scorer Scorer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{loader: loader, scorer: scorer, logger: logger}
}

// Handle decodes body, loads the documents and scores them. A job without an
// id gets a generated one.
func (h *Handler) Handle(ctx context.Context, body []byte) (*Job, *pipeline.BatchReport, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, nil, fmt.Errorf("%w: decode job: %w", ErrBadMessage, err)
	}
	if strings.TrimSpace(job.ID) == "" {
		job.ID = uuid.NewString()
	}
	if err := job.validate(); err != nil {
		return &job, nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}

	log := h.logger.With(zap.String("job_id", job.ID))

	jd := h.loader.Load(ctx, job.JDURI)
	if !jd.Success {
		return &job, nil, fmt.Errorf("load job description %s: %s", job.JDURI, jd.Error)
	}

	resumes := make([]pipeline.Document, 0, len(job.ResumeURIs))
	for _, uri := range job.ResumeURIs {
		parsed := h.loader.Load(ctx, uri)
		doc := pipeline.Document{Name: parsed.Filename, Text: parsed.Text}
		if !parsed.Success {
			doc.Err = fmt.Errorf("parsing failed: %s", parsed.Error)
		}
		resumes = append(resumes, doc)
	}

	log.Info("job loaded", zap.String("jd", jd.Filename), zap.Int("resumes", len(resumes)))

	report, err := h.scorer.ScoreBatch(ctx, jd.Text, resumes)
	if err != nil {
		return &job, nil, fmt.Errorf("score batch: %w", err)
	}
	report.ID = job.ID
	report.JDFilename = jd.Filename

	return &job, report, nil
}

// Package ner talks to a spaCy-style annotation service that runs the
// trained resume/JD model and the general-purpose pretrained model.
package ner

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent      = "spigell/ats-scorer"
	defaultTimeout = 10 * time.Second
	annotatePath   = "/annotate"
)

// Entity labels produced by the trained model.
const (
	LabelSkills      = "SKILLS"
	LabelEducation   = "EDUCATION"
	LabelName        = "NAME"
	LabelCompanies   = "COMPANIES_WORKED_AT"
	LabelDesignation = "DESIGNATION"
	LabelCollege     = "COLLEGE_NAME"
	LabelEmail       = "EMAIL_ADDRESS"
	LabelLocation    = "LOCATION"
)

// Entity labels produced by the pretrained model.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelGPE    = "GPE"
)

// Entity is one labelled span.
type Entity struct {
	Label string
	Text  string
}

// Annotator labels spans of text with the named model.
type Annotator interface {
	Annotate(ctx context.Context, text, model string) ([]Entity, error)
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	URL        string
}

func New(logger *zap.Logger, url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		URL: strings.TrimRight(url, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Annotate returns the entities the model finds in text. Blank text yields no entities.
func (c *Client) Annotate(ctx context.Context, text, model string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	body, err := c.postJSON(ctx, c.URL+annotatePath, annotateRequest{Text: text, Model: model})
	if err != nil {
		return nil, err
	}

	entities, err := parseEntities(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got entities from ner service", zap.String("model", model), zap.Int("count", len(entities)))
	return entities, nil
}

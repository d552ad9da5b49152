package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
)

// MaxBatchSize is the largest number of resumes one batch may hold.
const MaxBatchSize = 50

const reportFailed = "FAILED"

// Document is one resume of a batch. Err carries a failure that happened
// before scoring, for example while parsing the file.
type Document struct {
	Name string
	Text string
	Err  error
}

// BatchItem is the outcome for one resume.
type BatchItem struct {
	Filename string  `json:"resume_filename"`
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

// BatchReport lists successful items by final score, highest first, followed
// by the failed ones in input order.
type BatchReport struct {
	ID         string      `json:"id"`
	JDFilename string      `json:"jd_filename,omitempty"`
	Total      int         `json:"total_resumes"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"results"`
}

// ScoreBatch scores resumes one after another against the same JD. A failing
// resume is recorded in its item and does not stop the batch.
func (s *Service) ScoreBatch(ctx context.Context, jdText string, resumes []Document) (*BatchReport, error) {
	if len(resumes) == 0 {
		return nil, errors.New("at least one resume is required")
	}
	if len(resumes) > MaxBatchSize {
		return nil, fmt.Errorf("maximum %d resumes allowed per batch, got %d", MaxBatchSize, len(resumes))
	}

	report := &BatchReport{ID: uuid.NewString(), Total: len(resumes)}
	log := logger.WithFields(s.logger, zap.String("batch_id", report.ID))

	var succeeded, failed []BatchItem
	for i, doc := range resumes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info("scoring resume",
			zap.Int("index", i+1),
			zap.Int("total", len(resumes)),
			zap.String(logger.FieldDocument, doc.Name),
		)

		item := BatchItem{Filename: doc.Name}
		if doc.Err != nil {
			item.Error = doc.Err.Error()
			failed = append(failed, item)
			continue
		}

		res, err := s.Score(ctx, jdText, doc.Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("resume scoring failed", zap.String(logger.FieldDocument, doc.Name), zap.Error(err))
			item.Error = err.Error()
			failed = append(failed, item)
			continue
		}

		item.Success = true
		item.Result = res
		succeeded = append(succeeded, item)
	}

	sort.SliceStable(succeeded, func(i, j int) bool {
		return succeeded[i].Result.FinalScore > succeeded[j].Result.FinalScore
	})

	report.Items = append(succeeded, failed...)
	report.Successful = len(succeeded)
	report.Failed = len(failed)

	log.Info("batch scored", zap.Int("successful", report.Successful), zap.Int("failed", report.Failed))

	return report, nil
}

func (r *BatchReport) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ats_report_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByDecision groups the items by decision, with failed items under FAILED.
func (r *BatchReport) ReportByDecision() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range r.Items {
		if !item.Success {
			report[reportFailed] = append(report[reportFailed], map[string]string{
				"file":  item.Filename,
				"error": item.Error,
			})
			continue
		}

		res := item.Result
		key := string(res.Decision)
		report[key] = append(report[key], map[string]string{
			"file":           item.Filename,
			"candidate":      res.CandidateName,
			"email":          res.CandidateEmail,
			"score":          fmt.Sprintf("%.2f", res.FinalScore),
			"status":         res.Status,
			"skill match":    fmt.Sprintf("%.2f%%", res.Skills.Percent),
			"experience":     fmt.Sprintf("%s required, %.1f found", res.JDYears, res.ResumeYears),
			"education":      res.Education.Explanation,
			"missing skills": strings.Join(res.Skills.Missing, ", "),
		})
	}
	return report
}

func (r *BatchReport) Len() int {
	return len(r.Items)
}

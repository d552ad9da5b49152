package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/document"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/pipeline"
)

const (
	PromptReport     = "Report by decision"
	PromptDumpToFile = "Dump report to file"
	PromptJSON       = "Print full report"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReport, PromptJSON, PromptDumpToFile, PromptExit},
}

var batchCmd = &cobra.Command{
	Use:   "batch --jd FILE RESUME...",
	Short: "Score up to 50 resumes against one job description and rank them",
	Args:  cobra.RangeArgs(1, pipeline.MaxBatchSize),
	Run: func(cmd *cobra.Command, args []string) {
		batch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("jd", "", "job description file or s3://bucket/key")
	batchCmd.Flags().BoolP("yes", "y", false, "do not ask for actions, print the report and exit")

	batchCmd.MarkFlagRequired("jd")
}

func batch(cmd *cobra.Command, resumes []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), zap.String("app", app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	_, svc := mustServices(ctx, logger)

	jdText, err := loadText(ctx, svc.loader, cmd.Flag("jd").Value.String())
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	docs := loadResumes(ctx, svc.loader, resumes, logger)

	report, err := svc.scorer.ScoreBatch(ctx, jdText, docs)
	if err != nil {
		logger.Fatal("batch scoring failed", zap.Error(err))
	}
	report.JDFilename = cmd.Flag("jd").Value.String()

	logger.Info("batch is ready",
		zap.Int("total", report.Total),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
	)

	if cmd.Flag("yes").Value.String() == "true" {
		if err := handleAction(PromptReport, logger, report); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// loadResumes keeps unreadable files in the batch so they show up as failed items.
func loadResumes(ctx context.Context, loader *document.Loader, uris []string, logger *zap.Logger) []pipeline.Document {
	docs := make([]pipeline.Document, 0, len(uris))
	for _, uri := range uris {
		parsed := loader.Load(ctx, uri)
		doc := pipeline.Document{Name: parsed.Filename, Text: parsed.Text}
		if !parsed.Success {
			logger.Warn("resume parsing failed", zap.String("resume", uri), zap.String("error", parsed.Error))
			doc.Err = fmt.Errorf("parsing failed: %s", parsed.Error)
		}
		docs = append(docs, doc)
	}
	return docs
}

func handleAction(action string, logger *zap.Logger, report *pipeline.BatchReport) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReport:
		pretty, _ := json.MarshalIndent(report.ReportByDecision(), "", "  ")
		logger.Info(string(pretty), zap.Int("resumes count", report.Len()))
		return nil
	case PromptJSON:
		pretty, _ := json.MarshalIndent(report, "", "  ")
		logger.Info(string(pretty), zap.String("batch_id", report.ID))
		return nil
	case PromptDumpToFile:
		filename, err := report.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

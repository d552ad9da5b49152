package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/pipeline"
)

const (
	outputJSON = "json"
	outputText = "text"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one resume against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("jd", "", "job description file or s3://bucket/key")
	scoreCmd.Flags().String("resume", "", "resume file or s3://bucket/key")
	scoreCmd.Flags().StringP("output", "o", outputText, "output format: json or text")

	scoreCmd.MarkFlagRequired("jd")
	scoreCmd.MarkFlagRequired("resume")
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), zap.String("app", app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	output := strings.ToLower(cmd.Flag("output").Value.String())
	if output != outputJSON && output != outputText {
		logger.Fatal("invalid output format", zap.String("output", output))
	}

	_, svc := mustServices(ctx, logger)

	jdText, err := loadText(ctx, svc.loader, cmd.Flag("jd").Value.String())
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	resumeText, err := loadText(ctx, svc.loader, cmd.Flag("resume").Value.String())
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	result, err := svc.scorer.Score(ctx, jdText, resumeText)
	if err != nil {
		logger.Fatal("scoring failed", zap.Error(err))
	}

	if output == outputJSON {
		err = writeJSON(cmd.OutOrStdout(), result)
	} else {
		err = writeText(cmd.OutOrStdout(), result)
	}
	if err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}

// mustServices reads the config and builds the scoring collaborators or exits.
func mustServices(ctx context.Context, logger *zap.Logger) (*Config, *services) {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ats-scorer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	svc, err := newServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building scoring services", zap.Error(err))
	}
	return config, svc
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, r *pipeline.Result) error {
	b := r.Breakdown
	_, err := fmt.Fprintf(w, `Candidate:   %s <%s> %s
Decision:    %s (%s)
Final score: %.2f
  skills     %.2f (%.2f%% matched)
  experience %.2f (%s required, %.1f found)
  semantic   %.2f (similarity %.3f)
  education  %.2f (%s)
  penalty    -%.2f
Matched:     %s
Missing:     %s
`,
		r.CandidateName, r.CandidateEmail, r.CandidatePhone,
		r.Decision, r.Status,
		r.FinalScore,
		b.SkillsScore, r.Skills.Percent,
		b.YOEScore, r.JDYears, r.ResumeYears,
		b.SemanticScore, r.SemanticSimilarity,
		b.EducationScore, r.Education.Explanation,
		b.Penalty,
		strings.Join(r.Skills.Matched, ", "),
		strings.Join(r.Skills.Missing, ", "),
	)
	return err
}

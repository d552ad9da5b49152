package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume batch jobs from AMQP and publish the reports",
	Run: func(_ *cobra.Command, _ []string) {
		work()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().String("amqp-url", "", "AMQP broker url")
	workerCmd.Flags().Int("workers", 0, "number of concurrent jobs")

	viper.BindPFlag("worker.amqp-url", workerCmd.Flags().Lookup("amqp-url"))
	viper.BindPFlag("worker.workers", workerCmd.Flags().Lookup("workers"))
}

func work() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), zap.String("app", app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, svc := mustServices(ctx, logger)

	if config.Worker == nil || config.Worker.AMQPURL == "" {
		logger.Fatal("amqp url is required",
			zap.String("hint", "set worker.amqp-url in the config file or ATS_WORKER_AMQP_URL"),
		)
	}

	handler := queue.NewHandler(svc.loader, svc.scorer, logger)
	consumer := queue.NewConsumer(queue.Config{
		URL:      config.Worker.AMQPURL,
		Queue:    config.Worker.Queue,
		Exchange: config.Worker.ResultsExchange,
		Workers:  config.Worker.Workers,
	}, handler, logger)

	logger.Info("starting the worker",
		zap.String("queue", config.Worker.Queue),
		zap.String("exchange", config.Worker.ResultsExchange),
		zap.Int("workers", config.Worker.Workers),
	)

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}

	logger.Info("worker stopped", zap.String("reason", "signal received"))
}

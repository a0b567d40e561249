/**
 * @description
 * This is the main entry point for the deadline monitor. It is a non-HTTP,
 * long-running process that executes the periodic campaign deadline sweep.
 * It initializes the configuration, database connection and cron scheduler,
 * then waits for a termination signal and stops the scheduler cleanly.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fundflow/campaign-service/internal/app"
	"github.com/fundflow/campaign-service/internal/config"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
	"github.com/fundflow/campaign-service/pkg/mailclient"
	"github.com/fundflow/campaign-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	var producer rabbitmq.Publisher
	producer, err = rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, realtime push disabled", "error", err)
		producer = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	defer producer.Close()

	repository := store.NewPostgresRepository(dbpool)
	mailer := mailclient.NewClient(cfg.MailServiceURL)
	m := metrics.New(prometheus.DefaultRegisterer)

	dispatcher := app.NewDispatcher(repository, producer, mailer, m, logger)
	jobs := app.NewJobs(repository, dispatcher, cfg.ReminderWindowHours, m, logger)
	scheduler := app.NewScheduler(jobs, logger, *cfg)

	// Start the cron scheduler in the background.
	scheduler.Start()
	logger.Info("deadline monitor started")

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for in-flight sweeps to finish.
	logger.Info("scheduler stopped gracefully")
}

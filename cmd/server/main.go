/**
 * @description
 * This is the main entry point for the campaign-service HTTP API. It loads
 * configuration, connects to PostgreSQL and RabbitMQ, wires the application
 * service with its side-effect clients, and serves the chi router with
 * graceful shutdown on SIGINT/SIGTERM.
 */
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fundflow/campaign-service/internal/api"
	"github.com/fundflow/campaign-service/internal/app"
	"github.com/fundflow/campaign-service/internal/config"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
	"github.com/fundflow/campaign-service/pkg/mailclient"
	"github.com/fundflow/campaign-service/pkg/priceclient"
	"github.com/fundflow/campaign-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
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
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Realtime push is best-effort; fall back to a no-op publisher when the
	// broker is unreachable at startup.
	var producer rabbitmq.Publisher
	producer, err = rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, realtime push disabled", "error", err)
		producer = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	defer producer.Close()

	repository := store.NewPostgresRepository(dbpool)
	mailer := mailclient.NewClient(cfg.MailServiceURL)
	prices := priceclient.NewClient(cfg.PriceServiceURL)
	m := metrics.New(prometheus.DefaultRegisterer)

	dispatcher := app.NewDispatcher(repository, producer, mailer, m, logger)
	badges := app.NewBadgeEngine(repository, prices, dispatcher, cfg.MilestoneThreshold, m, logger)
	service := app.NewService(repository, dispatcher, badges, m, logger)
	handlers := api.NewCampaignHandlers(service, logger)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.CampaignRoutes(handlers, cfg.JWTSecret),
	}

	go func() {
		logger.Info("campaign service listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped gracefully")
}

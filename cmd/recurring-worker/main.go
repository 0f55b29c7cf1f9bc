package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Rajamiththiran/money-manager-sub000/internal/amqp"
	"github.com/Rajamiththiran/money-manager-sub000/internal/config"
	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
	"github.com/Rajamiththiran/money-manager-sub000/internal/services"
	"github.com/Rajamiththiran/money-manager-sub000/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	recurring := services.NewRecurringService(repo, repo, amqpClient)
	processor := services.NewRecurringProcessor(recurring, repo)
	cards := services.NewCreditCardService(repo, repo, amqpClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	runOnce := func() {
		today := core.Today()
		count, err := processor.ProcessDue(ctx, today)
		if err != nil {
			logger.Error("Recurring processing failed", "error", err)
		} else {
			logger.Info("Recurring processing complete", "transactions_created", count)
		}
		settled, err := cards.AutoSettle(ctx, today)
		if err != nil {
			logger.Error("Auto settlement failed", "error", err)
		} else if settled > 0 {
			logger.Info("Auto settlement complete", "statements_settled", settled)
		}
	}

	// Run once on startup, then on every tick.
	runOnce()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting charge-worker")

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

	// Materialized charges go through the queue like any other write so the
	// sync-worker mirrors them.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - materialized charges will not be mirrored")
	}

	transactions := services.NewTransactionService(repo, amqpClient, nil)
	materializer := services.NewMaterializer(repo, transactions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Materializer configured",
		"interval", cfg.MaterializerInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.MaterializerInterval)
	defer ticker.Stop()

	// Run initial pass on startup
	logger.Info("Running initial materialization pass...")
	runAllOwners(ctx, repo, materializer)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("Running periodic materialization pass...")
				runAllOwners(ctx, repo, materializer)
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Charge-worker shutdown complete")
}

// runAllOwners materializes due schedules for every owner that has any.
// Per-owner failures are logged and skipped so one broken schedule set
// never blocks the rest.
func runAllOwners(ctx context.Context, repo *storage.SQLiteRepository, m *services.Materializer) {
	owners, err := repo.ListScheduleOwners(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list schedule owners", "error", err)
		return
	}

	now := time.Now().UTC()
	total := 0
	for _, owner := range owners {
		fired, err := m.Run(ctx, owner, now)
		if err != nil {
			slog.ErrorContext(ctx, "Materialization failed for owner",
				"owner", owner, "error", err)
			continue
		}
		total += fired
	}

	slog.InfoContext(ctx, "Materialization pass complete",
		"owners", len(owners),
		"charges_created", total)
}

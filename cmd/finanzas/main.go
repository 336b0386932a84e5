package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	"finanzas/internal/pricing"
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

	logger.Info("Starting finanzas server")

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

	// AMQP is optional: without it, spreadsheet mirroring and queued price
	// refreshes are skipped but the ledger keeps working.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without queue", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized")
		}
	} else {
		logger.Info("AMQP disabled")
	}

	priceClient := pricing.NewClient(cfg.MarketBaseURL, cfg.MarketAppID)

	dashCache := services.NewDashboardCache()
	cacheManager := cache.NewManager()
	cacheManager.Register(dashCache)
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	dashboard := services.NewDashboardService(repo, dashCache)
	transactions := services.NewTransactionService(repo, amqpClient, dashboard)
	categories := services.NewCategoryService(repo, dashboard)
	materializer := services.NewMaterializer(repo, transactions)
	portfolio := services.NewPortfolioService(repo, priceClient, amqpClient, dashboard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The server runs its own materialization passes so due charges exist
	// before anyone reads a dashboard, even with no charge-worker deployed.
	// The conditional claim makes overlapping passes harmless.
	go runMaterializer(ctx, cfg.MaterializerInterval, repo, materializer)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		JWTSecret:    cfg.JWTSecret,
		Transactions: transactions,
		Categories:   categories,
		Scheduler:    materializer,
		Dashboard:    dashboard,
		Portfolio:    portfolio,
		Prices:       priceClient,
		Admin:        repo,
	})

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finanzas server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// runMaterializer runs a materialization pass for every owner with
// schedules, once at startup and then on each tick.
func runMaterializer(ctx context.Context, interval time.Duration, repo *storage.SQLiteRepository, m *services.Materializer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pass := func() {
		owners, err := repo.ListScheduleOwners(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list schedule owners", "error", err)
			return
		}
		now := time.Now().UTC()
		for _, owner := range owners {
			if _, err := m.Run(ctx, owner, now); err != nil {
				slog.ErrorContext(ctx, "Materialization failed for owner",
					"owner", owner, "error", err)
			}
		}
	}

	pass()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass()
		}
	}
}

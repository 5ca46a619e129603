package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"moneytracker/internal/amqp"
	"moneytracker/internal/cache"
	"moneytracker/internal/cli"
	"moneytracker/internal/core"
	apphttp "moneytracker/internal/http"
	"moneytracker/internal/log"
	"moneytracker/internal/middleware/ratelimit"
	"moneytracker/internal/services"
	"moneytracker/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to load timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}
	cal := core.NewCalendar(loc)

	db := cli.InitStore(context.Background(), logger, cfg.SQLiteDBPath)
	defer db.Close()

	overviews := cache.NewLRUCache[core.MonthOverview](cfg.OverviewCacheSize, cfg.OverviewCacheTTL)
	caches := cache.NewManager()
	caches.Register(overviews)
	caches.StartCleanup(cfg.OverviewCacheTTL)
	defer caches.Stop()

	opts := []services.Option{
		services.WithOverviewCache(overviews),
		services.WithTrendMonths(cfg.TrendMonths),
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		opts = append(opts, services.WithPublisher(client))
		logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(
		storage.NewTransactionStore(db, cal),
		storage.NewCategoryStore(db),
		cal,
		opts...,
	)

	seeded, err := ledger.EnsureCategoriesSeeded(context.Background())
	if err != nil {
		logger.Error("Failed to seed default categories", log.FieldOperation, log.OpSeed, log.FieldError, err)
		os.Exit(1)
	}
	if seeded > 0 {
		logger.Info("Seeded default categories", "count", seeded)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		Calendar:    cal,
		TrendMonths: cfg.TrendMonths,
		Logger:      logger,
		Ready:       db.Ping,
		RateLimit:   ratelimit.DefaultConfig(),
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting moneytracker server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/cache"
	"zeendr/internal/cli"
	"zeendr/internal/core"
	apphttp "zeendr/internal/http"
	applog "zeendr/internal/log"
	"zeendr/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting zeendr")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()
	zones := cli.LoadZones(logger, cfg.DeliveryZonesFile)

	reportCache := cache.NewLRUCache[any](256, cfg.ReportCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(reportCache)
	cacheManager.StartCleanup(cfg.ReportCacheTTL)
	defer cacheManager.Stop()

	// Without a broker the services skip publishing and the worker's
	// poller picks up unsynced rows.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reports := services.NewReportService(repo, zones, reportCache)
	svc := apphttp.Services{
		Auth:      services.NewAuthService(repo, cfg.SessionTTL),
		Orders:    services.NewOrderService(repo, zones, core.TransitionPolicy{AllowRollback: cfg.AllowStatusRollback}, publisher, reports),
		Expenses:  services.NewExpenseService(repo, publisher, reports),
		Inventory: services.NewInventoryService(repo, reports),
		Catalog:   services.NewCatalogService(repo, zones, reports),
		Reports:   reports,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMin,
		SecureCookies:      os.Getenv("SECURE_COOKIES") == "true",
		Ready:              repo.Ping,
		Logger:             applog.ForComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "ledger_backend", cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

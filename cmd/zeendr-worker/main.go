package main

import (
	"context"
	"errors"
	"os"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/backend"
	"zeendr/internal/cli"
	"zeendr/internal/notify"
	"zeendr/internal/services"
	"zeendr/internal/worker"
)

const sessionPurgeInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting zeendr-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid ledger backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create ledger backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	processor := services.NewLedgerProcessor(repo, result.Ledger, services.LedgerProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	var notifier notify.Notifier
	if cfg.WhatsAppEnabled() {
		notifier = notify.NewWhatsApp(cfg.WhatsAppAPIURL, cfg.WhatsAppPhoneID, cfg.WhatsAppToken)
		logger.Info("WhatsApp notifications enabled", "phone_id", cfg.WhatsAppPhoneID)
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Info("WhatsApp disabled - customer messages are only logged")
	}
	handler := worker.NewHandler(repo, notifier, processor)
	auth := services.NewAuthService(repo, cfg.SessionTTL)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - relying on the ledger poller only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Warn("Ledger processor stop", "error", err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start ledger processor", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.Consume(ctx, handler.Handle)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := auth.PurgeExpired(ctx)
				if err != nil {
					logger.Error("Failed to purge expired sessions", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("Purged expired sessions", "count", n)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

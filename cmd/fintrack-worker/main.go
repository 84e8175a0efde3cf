package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	archive, err := worker.NewCSVArchive(cfg.ArchivePath)
	if err != nil {
		logger.Error("Failed to initialize CSV archive",
			applog.FieldError, err, "path", cfg.ArchivePath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archiveWorker := worker.NewArchiveWorker(sqliteRepo, archive, cfg.SyncBatchSize, logger)

	// The broker is optional: without it only the periodic sweep runs
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - running sweep-only mode")
	}

	// On startup, drain anything that accumulated while the worker was down
	if err := archiveWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup sweep failed", applog.FieldError, err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeTransactionSync(ctx, archiveWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
			stop()
		}()
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := archiveWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic sweep failed", applog.FieldError, err)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

	// Give in-flight handlers a moment to finish before the deferred closes
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}

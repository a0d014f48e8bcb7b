package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/amqp"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/backend"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/cli"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets"
	gsheet "github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets/google"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/sheets/memory"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/worker"
)

const reconnectDelay = 5 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		startupCancel()
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(startupCtx, backendCfg)
	startupCancel()
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Without a spreadsheet target, exports land in an in-process appender.
	// Useful for local runs and queue draining.
	var appender sheets.LedgerAppender
	if cfg.SheetsConfigured() {
		appender, err = gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = memory.NewAppender()
		logger.Warn("Google Sheets disabled, exporting to in-process appender")
	}

	w := worker.NewExportWorker(result.Store, appender, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("AMQP connection failed", "error", err)
			} else {
				err = client.ConsumeEntrySaved(gctx, func(msg *amqp.EntrySavedMessage) error {
					return w.HandleEntrySaved(gctx, msg)
				})
				client.Close()
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Error("Message consumption stopped", "error", err)
			}

			select {
			case <-gctx.Done():
				return nil
			case <-time.After(reconnectDelay):
				logger.Info("Reconnecting to AMQP")
			}
		}
	})

	// Catch-up pass for entries whose publish failed. Skipped without a real
	// spreadsheet so a throwaway appender never marks durable entries
	// exported.
	if cfg.SheetsConfigured() {
		g.Go(func() error {
			if err := w.ProcessUnexported(gctx); err != nil {
				logger.Error("Startup export check failed", "error", err)
			}

			ticker := time.NewTicker(cfg.SyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := w.ProcessUnexported(gctx); err != nil {
						logger.Error("Periodic export check failed", "error", err)
					}
				}
			}
		})
	} else {
		logger.Info("Catch-up export disabled, no spreadsheet configured")
	}

	logger.Info("Starting kakeibo-worker",
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval.String())

	cli.WaitForShutdown(ctx, done)
	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if result.Cleanup != nil {
		if err := result.Cleanup(shutdownCtx); err != nil {
			logger.Error("Store cleanup error", "error", err)
		}
	}

	logger.Info("Worker shutdown complete")
}

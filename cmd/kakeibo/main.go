package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/amqp"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/backend"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/cli"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/core"
	apphttp "github.com/IKEOEKI-am/AyuMikoKakeibo/internal/http"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/line"
	"github.com/IKEOEKI-am/AyuMikoKakeibo/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	categories := cli.LoadCategories(logger, cfg.CategoriesFile)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// AMQP is optional: without it entries are saved but never exported.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export events", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	replier, err := line.NewClient(cfg.LineChannelToken)
	if err != nil {
		logger.Error("Failed to initialize LINE client", "error", err)
		os.Exit(1)
	}

	svc := services.NewMessageService(result.Store, categories, core.SystemClock{}, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, svc, replier, cfg.LineChannelSecret)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(shutdownCtx); err != nil {
				logger.Error("Store cleanup error", "error", err)
			}
		}
	})

	svc.StartCacheMaintenance(ctx)

	logger.Info("Starting kakeibo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"faxina/internal/amqp"
	"faxina/internal/backend"
	"faxina/internal/cli"
	"faxina/internal/log"
	gsheet "faxina/internal/sheets/google"
	"faxina/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The worker only reads payments; it never publishes.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer res.Close()

	credentials, err := cfg.ServiceAccountJSON()
	if err != nil {
		logger.Error("Failed to read Google credentials", log.FieldError, err.Error())
		os.Exit(1)
	}
	sheetsClient, err := gsheet.NewWithCredentials(ctx, credentials, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(res.Repository, sheetsClient, logger)

	// Catch up on anything that changed while the worker was down.
	if err := syncWorker.FullSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, syncWorker.HandleEvent)
	})
	if cfg.MirrorResyncInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.MirrorResyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := syncWorker.FullSync(gctx); err != nil {
						logger.Error("Periodic sync failed", log.FieldError, err.Error())
					}
				}
			}
		})
	}

	logger.Info("Worker running", "queue", cfg.AMQPQueue, "resync_interval", cfg.MirrorResyncInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

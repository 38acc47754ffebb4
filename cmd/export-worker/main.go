package main

import (
	"context"
	"os"
	"time"

	"budgetvoice/internal/amqp"
	"budgetvoice/internal/cli"
	"budgetvoice/internal/log"
	"budgetvoice/internal/sheets/google"
	"budgetvoice/internal/worker"

	"golang.org/x/sync/errgroup"
)

const pruneInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting export-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	sheetsClient, err := google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(sheetsClient, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.Run(gctx, amqpClient)
	})
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := exporter.PruneExported(); n > 0 {
					logger.Debug("Pruned exported message ids", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Export worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker shutdown complete")
}

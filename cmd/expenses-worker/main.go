package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	memsheet "expenses/internal/sheets/memory"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting expenses-worker")
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize sheet mirror", "error", err)
		os.Exit(1)
	}
	w := worker.NewMirrorWorker(mirror, logger.WithComponent(applog.ComponentWorker))

	reconcile(ctx, cfg, logger, w)

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func newMirror(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.Mirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}

// reconcile brings the mirror up to date with the store before consuming,
// covering events published while the worker was down. Failures are logged
// and consumption starts anyway.
func reconcile(ctx context.Context, cfg *config.Config, logger *applog.Logger, w *worker.MirrorWorker) {
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Info("Skipping startup reconcile, memory backend is private to the API process")
		return
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		return
	}
	backendCfg.AMQPURL = ""

	startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	repo, err := backend.NewFactory(logger).CreateRepository(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to open store for reconcile", "error", err)
		return
	}
	defer repo.Close()

	if err := w.Reconcile(startCtx, repo); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
	}
}

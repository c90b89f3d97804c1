package main

import (
	"context"
	"os"
	"time"

	"expenses/internal/backend"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(applog.ComponentApp)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	logger.Info("Starting expenses server")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	result, err := backend.NewFactory(logger).CreateBackend(startCtx, backendCfg)
	cancel()
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	srv, err := apphttp.NewServer(result.Service, apphttp.Options{
		Addr:               ":" + cfg.Port,
		PublicAPIURL:       cfg.PublicAPIURL,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	logger.Info("Serving expenses API",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"public_api_url", cfg.PublicAPIURL)

	if err := cli.ServeUntilDone(ctx, logger, srv, 30*time.Second); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

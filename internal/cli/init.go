// Package cli provides the start-up steps shared by cmd/expenses and
// cmd/expenses-worker.
package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenses/internal/config"
	applog "expenses/internal/log"
)

// SetupLogger builds the process logger from the configured log level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := newLogger(cfg, component, os.Stdout)
	applog.SetDefault(logger)
	return logger
}

func newLogger(cfg *config.Config, component string, out io.Writer) *applog.Logger {
	return applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure. Failures are logged
// with default settings since the log configuration is not known yet.
func LoadAndValidateConfig(component string) *config.Config {
	logger := applog.New(applog.Config{Component: component, Output: os.Stderr})
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, cancel
}

// Server is satisfied by *http.Server and by servers embedding it.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ServeUntilDone runs srv until ctx is cancelled, then shuts it down,
// waiting at most timeout for in-flight requests.
func ServeUntilDone(ctx context.Context, logger *applog.Logger, srv Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown timeout reached", "error", err)
			return err
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}

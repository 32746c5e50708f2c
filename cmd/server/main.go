// Package main is the entry point for the wine-cellar HTTP server.
// In Go, the `main` package with a `main()` function is what gets
// executed — the whole app compiles to a single static binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/config"
	"github.com/fleveque/wine-cellar/internal/server"
	"github.com/fleveque/wine-cellar/internal/service"
	"github.com/fleveque/wine-cellar/internal/storage"
)

func main() {
	// os.Exit ensures the process exits with a non-zero code on failure.
	// We call run() separately so deferred cleanup functions execute
	// properly (deferred functions don't run when os.Exit is called
	// directly).
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing database location is a fatal startup error — Load
	// enforces it.
	configPath := os.Getenv("WINE_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging with zap — JSON in production,
	// human-readable in development.
	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync flushes buffered log entries. The error is ignored because
	// Sync commonly fails on stdout/stderr (not a real problem).
	defer func() { _ = logger.Sync() }()

	// The database handle is opened exactly once here and handed down
	// explicitly; it closes when run() returns.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	wineRepo := storage.NewWineRepository(db)
	grapeRepo := storage.NewGrapeRepository(db)
	commentRepo := storage.NewCommentRepository(db)
	ledger := service.NewLedger(storage.NewLedgerRepository(db))
	pipeline := service.NewImagePipeline(cfg.Image.MaxDimension, cfg.Image.ThumbnailDimension)
	cellar := service.NewCellarService(wineRepo, grapeRepo, commentRepo, ledger, pipeline, logger)

	srv := server.New(cfg, server.Deps{Cellar: cellar}, logger)

	// Graceful shutdown: listen for SIGINT (Ctrl+C) or SIGTERM
	// (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Block until we receive a signal or the server errors out.
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

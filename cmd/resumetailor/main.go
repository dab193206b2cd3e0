package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resumetailor/internal/cli"
	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A local .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to apply vault secrets")
		os.Exit(1)
	}

	logger.Info("Starting resumetailor",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"remote", cfg.Remote.BaseURL,
		"export_mode", cfg.Export.Mode)

	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}

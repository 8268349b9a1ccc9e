package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mouadelabbassi/dashboard/internal/app"
	"github.com/mouadelabbassi/dashboard/internal/config"
	pkgconfig "github.com/mouadelabbassi/dashboard/pkg/config"
	"github.com/mouadelabbassi/dashboard/pkg/logger"
)

func main() {
	// Local .env files only fill variables the environment does not set.
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("smartsearch", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting smart search service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("product_store", cfg.ProductStore),
	)

	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("smart search service stopped")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/catalog-entitlements/internal/app/provisioner"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/logger"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)

	log.Info("starting provisioner", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := provisioner.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize provisioner", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("provisioner stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("provisioner stopped gracefully")
}

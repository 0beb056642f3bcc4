package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/catalog-entitlements/internal/app/backfill"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/logger"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := backfill.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize backfill", sl.Err(err))
		os.Exit(1)
	}

	report, err := app.Run(ctx)
	if err != nil {
		log.Error("backfill aborted", sl.Err(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("failed to print report", sl.Err(err))
	}
	if len(report.Failures) > 0 {
		log.Error("backfill finished with failures", slog.Int("failed", len(report.Failures)))
		os.Exit(1)
	}
}

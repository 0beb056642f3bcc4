// Package main Catalog Entitlements API
//
// @title           Catalog Entitlements API
// @version         1.0
// @description     API назначения каталогов и прайс-контрактов пользователям

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/catalog-entitlements/docs"
	"github.com/magabrotheeeer/catalog-entitlements/internal/app/entitlements"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/logger"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)

	log.Info("starting entitlements", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := entitlements.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("entitlements stopped gracefully")
}

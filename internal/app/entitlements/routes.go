// Package entitlements HTTP API сервиса назначений каталогов и контрактов.
package entitlements

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	assigncatalogs "github.com/magabrotheeeer/catalog-entitlements/internal/http/handlers/assignment/catalogs"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/handlers/assignment/contracts"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/handlers/health"
	mecatalogs "github.com/magabrotheeeer/catalog-entitlements/internal/http/handlers/me/catalogs"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/middlewarectx"
)

// Engine операции движка назначений, доступные через HTTP.
type Engine interface {
	assigncatalogs.Service
	contracts.Service
	list.Service
	mecatalogs.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, engine Engine,
	tokens middlewarectx.TokenParser, pinger health.Pinger) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
	)

	r.Get("/health", health.New(logger, pinger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(tokens, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))

		r.Post("/assignments/catalogs", assigncatalogs.New(logger, engine).ServeHTTP)
		r.Post("/assignments/contracts", contracts.New(logger, engine).ServeHTTP)
		r.Get("/users", list.New(logger, engine).ServeHTTP)
		r.Get("/me/catalogs", mecatalogs.New(logger, engine).ServeHTTP)
	})
}

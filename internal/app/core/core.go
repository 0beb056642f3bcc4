// Package core собирает общие зависимости процессов сервиса: хранилище,
// кеш, реестр каталогов и движок назначений.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/cache"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/migrations"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/services/assignment"
	"github.com/magabrotheeeer/catalog-entitlements/internal/services/registry"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// Core общие зависимости.
type Core struct {
	DB       *storage.Storage
	Cache    *cache.Cache
	Registry *registry.Service
	Engine   *assignment.Service

	Master  *models.Catalog
	Starter *models.Catalog
}

// New подключается к базе и redis, применяет миграции и гарантирует наличие
// мастер-каталога и каталога по умолчанию.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier assignment.Notifier) (*Core, error) {
	const op = "core.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	names := registry.Names{Master: cfg.MasterName, Default: cfg.DefaultName}
	reg := registry.NewRegistryService(db, cacheRedis, names, cfg.CacheTTL, logger)

	c := &Core{
		DB:       db,
		Cache:    cacheRedis,
		Registry: reg,
		Engine:   assignment.NewAssignmentService(db, reg, cacheRedis, notifier, cfg.CacheTTL, logger),
	}

	if c.Master, err = reg.EnsureMasterCatalog(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", op, err), c.Close())
	}
	if c.Starter, err = reg.EnsureDefaultCatalog(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", op, err), c.Close())
	}
	logger.Info("catalog singletons ready",
		slog.String("master_id", c.Master.ID),
		slog.String("default_id", c.Starter.ID),
	)
	return c, nil
}

// Close закрывает соединения с redis и базой.
func (c *Core) Close() error {
	return errors.Join(c.Cache.Close(), c.DB.Close())
}

// Package backfill разовая задача: делает каталог по умолчанию основным для
// всех платных пользователей.
package backfill

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/app/core"
	"github.com/magabrotheeeer/catalog-entitlements/internal/config"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/services/assignment"
)

// App задача заполнения.
type App struct {
	core   *core.Core
	logger *slog.Logger
}

// New собирает зависимости. События о заполнении не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	c, err := core.New(ctx, cfg, logger, assignment.NopNotifier{})
	if err != nil {
		return nil, err
	}
	return &App{core: c, logger: logger}, nil
}

// Run выполняет заполнение и возвращает отчёт.
func (a *App) Run(ctx context.Context) (assignment.BackfillReport, error) {
	defer func() {
		if err := a.core.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}()
	return a.core.Engine.BackfillDefaultCatalog(ctx, a.core.Starter.ID)
}

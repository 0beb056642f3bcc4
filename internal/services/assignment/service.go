// Package assignment содержит движок назначений: массовое назначение каталогов и
// прайс-контрактов с проверкой области управления, поддержку единственного
// основного каталога, заполнение каталога по умолчанию и чтение назначений.
package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// RoutingKey ключ маршрутизации событий об изменении назначений.
const RoutingKey = "assignment"

// Repository методы хранилища, используемые движком.
type Repository interface {
	UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	PaidUserIDs(ctx context.Context) ([]string, error)
	ListUsers(ctx context.Context, scope hierarchy.Scope, filter models.UsersFilter) ([]*models.UserAssignments, int, error)
	CatalogsByIDs(ctx context.Context, ids []string) ([]*models.Catalog, error)
	ContractsByIDs(ctx context.Context, ids []string) ([]*models.PriceContract, error)
	AssignedCatalogs(ctx context.Context, userID string) ([]models.VisibleCatalog, error)
	// InTx выполняет fn в одной транзакции.
	InTx(ctx context.Context, fn func(tx storage.Tx) error) error
}

// Catalogs источник каталогов-одиночек.
type Catalogs interface {
	MasterCatalog(ctx context.Context) (*models.Catalog, error)
	DefaultCatalog(ctx context.Context) (*models.Catalog, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier публикует события для сервиса уведомлений.
type Notifier interface {
	Publish(routingKey string, message any) error
}

// NopNotifier отбрасывает события.
type NopNotifier struct{}

// Publish ничего не делает.
func (NopNotifier) Publish(string, any) error { return nil }

// Service движок назначений.
type Service struct {
	repo     Repository
	catalogs Catalogs
	cache    Cache
	notifier Notifier
	ttl      time.Duration
	log      *slog.Logger
}

// NewAssignmentService создает новый экземпляр Service.
func NewAssignmentService(repo Repository, catalogs Catalogs, cache Cache, notifier Notifier,
	ttl time.Duration, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		catalogs: catalogs,
		cache:    cache,
		notifier: notifier,
		ttl:      ttl,
		log:      log,
	}
}

func visibleCacheKey(userID string) string {
	return "user:" + userID + ":catalogs"
}

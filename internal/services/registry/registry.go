// Package registry гарантирует наличие каталогов-одиночек: мастер-каталога и
// стартового каталога по умолчанию.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

const (
	masterCacheKey  = "catalog:master"
	defaultCacheKey = "catalog:default"
)

// Repository методы хранилища каталогов, нужные реестру.
type Repository interface {
	FindCatalogByFlag(ctx context.Context, flag storage.CatalogFlag) (*models.Catalog, error)
	FindCatalogByName(ctx context.Context, name string) (*models.Catalog, error)
	CreateCatalog(ctx context.Context, c models.Catalog) (*models.Catalog, error)
	SetCatalogFlag(ctx context.Context, id string, flag storage.CatalogFlag) (*models.Catalog, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Names имена каталогов-одиночек.
type Names struct {
	Master  string
	Default string
}

// Service реестр каталогов.
type Service struct {
	repo  Repository
	cache Cache
	names Names
	ttl   time.Duration
	log   *slog.Logger
}

// NewRegistryService создает новый экземпляр Service.
func NewRegistryService(repo Repository, cache Cache, names Names, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		names: names,
		ttl:   ttl,
		log:   log,
	}
}

type singleton struct {
	flag     storage.CatalogFlag
	name     string
	cacheKey string
	isPublic bool
}

// consistent сообщает, что найденный по флагу каталог активен,
// а мастер-каталог ещё и непубличен.
func (sg singleton) consistent(c *models.Catalog) bool {
	if !c.IsActive {
		return false
	}
	return sg.flag != storage.FlagMaster || !c.IsPublic
}

func (s *Service) master() singleton {
	return singleton{flag: storage.FlagMaster, name: s.names.Master, cacheKey: masterCacheKey}
}

func (s *Service) starter() singleton {
	return singleton{flag: storage.FlagDefault, name: s.names.Default, cacheKey: defaultCacheKey, isPublic: true}
}

// EnsureMasterCatalog возвращает мастер-каталог, создавая его при отсутствии.
func (s *Service) EnsureMasterCatalog(ctx context.Context) (*models.Catalog, error) {
	return s.ensure(ctx, "registry.EnsureMasterCatalog", s.master())
}

// EnsureDefaultCatalog возвращает каталог по умолчанию, создавая его при отсутствии.
func (s *Service) EnsureDefaultCatalog(ctx context.Context) (*models.Catalog, error) {
	return s.ensure(ctx, "registry.EnsureDefaultCatalog", s.starter())
}

// MasterCatalog возвращает мастер-каталог из кеша или хранилища.
func (s *Service) MasterCatalog(ctx context.Context) (*models.Catalog, error) {
	return s.cached(ctx, "registry.MasterCatalog", s.master())
}

// DefaultCatalog возвращает каталог по умолчанию из кеша или хранилища.
func (s *Service) DefaultCatalog(ctx context.Context) (*models.Catalog, error) {
	return s.cached(ctx, "registry.DefaultCatalog", s.starter())
}

func (s *Service) cached(ctx context.Context, op string, sg singleton) (*models.Catalog, error) {
	log := s.log.With(slog.String("op", op))

	var c models.Catalog
	found, err := s.cache.Get(sg.cacheKey, &c)
	if err != nil {
		log.Warn("failed to read catalog from cache", sl.Err(err))
	}
	if found && c.ID != "" {
		return &c, nil
	}
	return s.ensure(ctx, op, sg)
}

func (s *Service) ensure(ctx context.Context, op string, sg singleton) (*models.Catalog, error) {
	log := s.log.With(slog.String("op", op), slog.String("flag", string(sg.flag)))

	c, err := s.repo.FindCatalogByFlag(ctx, sg.flag)
	switch {
	case err == nil:
		if sg.consistent(c) {
			s.remember(log, sg, c)
			return c, nil
		}
		log.Info("repairing catalog attributes", slog.String("catalog_id", c.ID))
		return s.repair(ctx, op, log, sg, c.ID)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}

	c, err = s.repo.FindCatalogByName(ctx, sg.name)
	switch {
	case err == nil:
		log.Info("repairing catalog flag", slog.String("catalog_id", c.ID))
		return s.repair(ctx, op, log, sg, c.ID)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}

	c, err = s.repo.CreateCatalog(ctx, models.Catalog{
		ID:        uuid.NewString(),
		Name:      sg.name,
		IsMaster:  sg.flag == storage.FlagMaster,
		IsDefault: sg.flag == storage.FlagDefault,
		IsActive:  true,
		IsPublic:  sg.isPublic,
	})
	if errors.Is(err, storage.ErrConflict) {
		log.Info("catalog created concurrently, reloading")
		return s.reload(ctx, op, log, sg)
	}
	if err != nil {
		log.Error("failed to create catalog", sl.Err(err))
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	log.Info("catalog created", slog.String("catalog_id", c.ID))
	s.remember(log, sg, c)
	return c, nil
}

// repair выставляет флаг и атрибуты одиночки. Если флаг уже занят другим
// каталогом, возвращается занявший его каталог.
func (s *Service) repair(ctx context.Context, op string, log *slog.Logger, sg singleton, id string) (*models.Catalog, error) {
	c, err := s.repo.SetCatalogFlag(ctx, id, sg.flag)
	if errors.Is(err, storage.ErrConflict) {
		log.Info("catalog flag taken concurrently, reloading")
		return s.reload(ctx, op, log, sg)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	s.remember(log, sg, c)
	return c, nil
}

func (s *Service) reload(ctx context.Context, op string, log *slog.Logger, sg singleton) (*models.Catalog, error) {
	c, err := s.repo.FindCatalogByFlag(ctx, sg.flag)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	if !sg.consistent(c) {
		return s.repair(ctx, op, log, sg, c.ID)
	}
	s.remember(log, sg, c)
	return c, nil
}

func (s *Service) remember(log *slog.Logger, sg singleton, c *models.Catalog) {
	if err := s.cache.Set(sg.cacheKey, c, s.ttl); err != nil {
		log.Warn("failed to cache catalog", sl.Err(err))
	}
}

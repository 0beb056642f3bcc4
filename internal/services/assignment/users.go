package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// GetUsers возвращает страницу пользователей из области субъекта с их
// назначениями.
func (s *Service) GetUsers(ctx context.Context, actor models.Principal, filter models.UsersFilter) (*models.UsersPage, error) {
	const op = "assignment.GetUsers"

	scope := hierarchy.For(actor)
	if scope.Empty() {
		return nil, apperr.Forbidden("role cannot view users", actor.ID)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultPageLimit
	case filter.Limit > maxPageLimit:
		filter.Limit = maxPageLimit
	}

	users, total, err := s.repo.ListUsers(ctx, scope, filter)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	if users == nil {
		users = []*models.UserAssignments{}
	}
	return &models.UsersPage{
		Users: users,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// VisibleCatalogs возвращает каталоги, которые видит пользователь: основной
// первым, затем мастер-каталог и остальные активные назначенные каталоги.
func (s *Service) VisibleCatalogs(ctx context.Context, user models.Principal) ([]models.VisibleCatalog, error) {
	const op = "assignment.VisibleCatalogs"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", user.ID),
	)

	key := visibleCacheKey(user.ID)
	var cached []models.VisibleCatalog
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		log.Warn("failed to read visible catalogs from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	master, err := s.catalogs.MasterCatalog(ctx)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	assigned, err := s.repo.AssignedCatalogs(ctx, user.ID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}

	result := mergeVisible(master, assigned)
	if err := s.cache.Set(key, result, s.ttl); err != nil {
		log.Warn("failed to cache visible catalogs", sl.Err(err))
	}
	return result, nil
}

func mergeVisible(master *models.Catalog, assigned []models.VisibleCatalog) []models.VisibleCatalog {
	result := make([]models.VisibleCatalog, 0, len(assigned)+1)
	rest := make([]models.VisibleCatalog, 0, len(assigned))
	masterSeen := false
	for _, c := range assigned {
		if c.ID == master.ID {
			masterSeen = true
		}
		if c.IsPrimary {
			result = append(result, c)
			continue
		}
		rest = append(rest, c)
	}

	if !masterSeen && master.IsActive {
		result = append(result, models.VisibleCatalog{ID: master.ID, Name: master.Name, IsMaster: true})
	}
	for _, c := range rest {
		if c.ID == master.ID {
			result = append(result, c)
			break
		}
	}
	for _, c := range rest {
		if c.ID != master.ID {
			result = append(result, c)
		}
	}
	return result
}

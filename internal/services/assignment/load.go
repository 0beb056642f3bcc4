package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// dedupe убирает пустые и повторные идентификаторы, сохраняя порядок.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) requireCatalogs(ctx context.Context, op string, ids []string) error {
	found, err := s.repo.CatalogsByIDs(ctx, ids)
	if err != nil {
		return apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	active := make(map[string]bool, len(found))
	for _, c := range found {
		active[c.ID] = c.IsActive
	}
	for _, id := range ids {
		if !active[id] {
			return apperr.NotFound("catalog", id)
		}
	}
	return nil
}

func (s *Service) requireContracts(ctx context.Context, op string, ids []string) error {
	found, err := s.repo.ContractsByIDs(ctx, ids)
	if err != nil {
		return apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	known := make(map[string]struct{}, len(found))
	for _, c := range found {
		known[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return apperr.NotFound("contract", id)
		}
	}
	return nil
}

// authorize проверяет, что все пользователи существуют и входят в область субъекта.
// Неизвестный пользователь даёт NotFound только для ADMIN: остальным он
// отказывается так же, как пользователь вне области.
func (s *Service) authorize(ctx context.Context, op string, scope hierarchy.Scope, userIDs []string) error {
	users, err := s.repo.UsersByIDs(ctx, userIDs)
	if err != nil {
		return apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	if scope.Kind == hierarchy.KindAll {
		for _, id := range userIDs {
			if _, ok := byID[id]; !ok {
				return apperr.NotFound("user", id)
			}
		}
	}

	lookup, err := s.distributorLookup(ctx, op, scope, byID)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		if !scope.Allows(byID[id], lookup) {
			return apperr.Forbidden("user is outside of actor scope", id)
		}
	}
	return nil
}

func (s *Service) distributorLookup(ctx context.Context, op string, scope hierarchy.Scope,
	known map[string]*models.User) (hierarchy.DistributorLookup, error) {
	if !scope.NeedsDistributors() {
		return nil, nil
	}

	var missing []string
	for _, u := range known {
		if u.AssignedToDistributorID == nil {
			continue
		}
		if _, ok := known[*u.AssignedToDistributorID]; !ok {
			missing = append(missing, *u.AssignedToDistributorID)
		}
	}
	distributors := make(map[string]*models.User, len(known)+len(missing))
	for id, u := range known {
		distributors[id] = u
	}
	if len(missing) > 0 {
		found, err := s.repo.UsersByIDs(ctx, dedupe(missing))
		if err != nil {
			return nil, apperr.Storage(fmt.Errorf("%s: %w", op, err))
		}
		for _, u := range found {
			distributors[u.ID] = u
		}
	}
	return func(id string) (*models.User, bool) {
		u, ok := distributors[id]
		return u, ok
	}, nil
}

// txError приводит ошибку транзакции пользователя к доменной.
func txError(op, userID string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("user", userID)
	}
	return apperr.Storage(fmt.Errorf("%s: %w", op, err))
}

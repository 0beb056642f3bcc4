package assignment

import (
	"context"
	"log/slog"
	"slices"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/metrics"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// AssignCatalogs назначает каталоги catalogIDs пользователям userIDs. Основным
// становится primaryCatalogID, а если он пуст, первый каталог списка. Назначения,
// не упомянутые в запросе, сохраняются. Вся пачка отклоняется до первой записи,
// если хотя бы один каталог или пользователь не прошёл проверку. Возвращает число
// пользователей, у которых изменились назначения.
func (s *Service) AssignCatalogs(ctx context.Context, actor models.Principal, userIDs, catalogIDs []string,
	primaryCatalogID string) (int, error) {
	const op = "assignment.AssignCatalogs"
	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actor.ID),
	)

	updated, err := s.assignCatalogs(ctx, op, log, actor, userIDs, catalogIDs, primaryCatalogID)
	if err != nil {
		metrics.AssignmentErrors.WithLabelValues("catalogs", apperr.KindOf(err).String()).Inc()
		log.Warn("catalog assignment failed", sl.Err(err), sl.Kind(err), slog.Int("updated", updated))
		return updated, err
	}
	log.Info("catalogs assigned", slog.Int("users", len(userIDs)), slog.Int("updated", updated))
	return updated, nil
}

func (s *Service) assignCatalogs(ctx context.Context, op string, log *slog.Logger, actor models.Principal,
	userIDs, catalogIDs []string, primaryCatalogID string) (int, error) {
	catalogIDs = dedupe(catalogIDs)
	userIDs = dedupe(userIDs)
	if len(catalogIDs) == 0 {
		return 0, apperr.Validation("catalog_ids must not be empty", "")
	}
	if len(userIDs) == 0 {
		return 0, apperr.Validation("user_ids must not be empty", "")
	}
	if primaryCatalogID == "" {
		primaryCatalogID = catalogIDs[0]
	} else if !slices.Contains(catalogIDs, primaryCatalogID) {
		return 0, apperr.Validation("primary_catalog_id must be one of catalog_ids", primaryCatalogID)
	}

	scope := hierarchy.For(actor)
	if scope.Empty() {
		return 0, apperr.Forbidden("role cannot manage assignments", actor.ID)
	}
	if err := s.requireCatalogs(ctx, op, catalogIDs); err != nil {
		return 0, err
	}
	if err := s.authorize(ctx, op, scope, userIDs); err != nil {
		return 0, err
	}

	assignedBy := actor.ID
	updated := 0
	for _, userID := range userIDs {
		changed, err := s.applyCatalogs(ctx, userID, catalogIDs, primaryCatalogID, &assignedBy)
		if err != nil {
			return updated, txError(op, userID, err)
		}
		if !changed {
			continue
		}
		updated++
		s.afterCatalogChange(log, models.AssignmentEvent{
			UserID:           userID,
			CatalogIDs:       catalogIDs,
			PrimaryCatalogID: primaryCatalogID,
			AssignedByID:     assignedBy,
		})
	}
	metrics.AssignedUsers.WithLabelValues("catalogs").Add(float64(updated))
	return updated, nil
}

// applyCatalogs приводит назначения пользователя к состоянию, в котором все
// catalogIDs назначены, основным отмечен только primaryID, а кэш основного
// каталога в профиле совпадает с ним. Если состояние уже достигнуто, записей нет.
func (s *Service) applyCatalogs(ctx context.Context, userID string, catalogIDs []string, primaryID string,
	assignedBy *string) (bool, error) {
	changed := false
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		existing, err := tx.CatalogAssignments(ctx, userID)
		if err != nil {
			return err
		}
		p := planCatalogs(u, existing, catalogIDs, primaryID)
		if p.empty() {
			return nil
		}
		changed = true

		// Снятие флага идёт первым: индекс допускает одну основную связь на пользователя.
		if p.demote {
			if _, err := tx.DemotePrimaries(ctx, userID, primaryID); err != nil {
				return err
			}
		}
		if p.promote {
			if err := tx.UpsertCatalogAssignment(ctx, models.CatalogAssignment{
				CatalogID: primaryID, UserID: userID, IsPrimary: true, AssignedByID: assignedBy,
			}); err != nil {
				return err
			}
		}
		for _, id := range p.insert {
			if err := tx.UpsertCatalogAssignment(ctx, models.CatalogAssignment{
				CatalogID: id, UserID: userID, AssignedByID: assignedBy,
			}); err != nil {
				return err
			}
		}
		if p.setPrimary {
			return tx.SetPrimaryCatalog(ctx, userID, &primaryID)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

type catalogPlan struct {
	demote     bool
	promote    bool
	insert     []string
	setPrimary bool
}

func (p catalogPlan) empty() bool {
	return !p.demote && !p.promote && len(p.insert) == 0 && !p.setPrimary
}

func planCatalogs(u *models.User, existing []models.CatalogAssignment, catalogIDs []string, primaryID string) catalogPlan {
	rows := make(map[string]bool, len(existing))
	var p catalogPlan
	for _, a := range existing {
		rows[a.CatalogID] = a.IsPrimary
		if a.IsPrimary && a.CatalogID != primaryID {
			p.demote = true
		}
	}
	if isPrimary, ok := rows[primaryID]; !ok || !isPrimary {
		p.promote = true
	}
	for _, id := range catalogIDs {
		if id == primaryID {
			continue
		}
		if _, ok := rows[id]; !ok {
			p.insert = append(p.insert, id)
		}
	}
	p.setPrimary = u.PrimaryCatalogID == nil || *u.PrimaryCatalogID != primaryID
	return p
}

func (s *Service) afterCatalogChange(log *slog.Logger, ev models.AssignmentEvent) {
	if err := s.cache.Invalidate(visibleCacheKey(ev.UserID)); err != nil {
		log.Warn("failed to invalidate visible catalogs", slog.String("user_id", ev.UserID), sl.Err(err))
	}
	s.publish(log, ev)
}

func (s *Service) publish(log *slog.Logger, ev models.AssignmentEvent) {
	if err := s.notifier.Publish(RoutingKey, ev); err != nil {
		log.Warn("failed to publish assignment event", slog.String("user_id", ev.UserID), sl.Err(err))
	}
}

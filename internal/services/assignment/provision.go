package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/metrics"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// ProvisionUser выдаёт новому платному пользователю каталог по умолчанию.
// Каталог становится основным, только если основного у пользователя ещё нет.
// Для бесплатных пользователей ничего не делает. Возвращает true, если
// назначения изменились.
func (s *Service) ProvisionUser(ctx context.Context, userID string) (bool, error) {
	const op = "assignment.ProvisionUser"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
	)

	starter, err := s.catalogs.DefaultCatalog(ctx)
	if err != nil {
		return false, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}

	changed := false
	err = s.repo.InTx(ctx, func(tx storage.Tx) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !u.Role.IsPaid() {
			return nil
		}
		existing, err := tx.CatalogAssignments(ctx, userID)
		if err != nil {
			return err
		}

		hasPrimary, assigned := false, false
		for _, a := range existing {
			hasPrimary = hasPrimary || a.IsPrimary
			assigned = assigned || a.CatalogID == starter.ID
		}
		if hasPrimary && assigned {
			return nil
		}
		if hasPrimary {
			changed = true
			return tx.UpsertCatalogAssignment(ctx, models.CatalogAssignment{CatalogID: starter.ID, UserID: userID})
		}

		changed = true
		if err := tx.UpsertCatalogAssignment(ctx, models.CatalogAssignment{
			CatalogID: starter.ID, UserID: userID, IsPrimary: true,
		}); err != nil {
			return err
		}
		return tx.SetPrimaryCatalog(ctx, userID, &starter.ID)
	})
	if err != nil {
		err = txError(op, userID, err)
		metrics.AssignmentErrors.WithLabelValues("provision", apperr.KindOf(err).String()).Inc()
		return false, err
	}
	if !changed {
		log.Debug("nothing to provision")
		return false, nil
	}

	metrics.AssignedUsers.WithLabelValues("provision").Inc()
	log.Info("default catalog provisioned", slog.String("catalog_id", starter.ID))
	s.afterCatalogChange(log, models.AssignmentEvent{
		UserID:     userID,
		CatalogIDs: []string{starter.ID},
	})
	return true, nil
}

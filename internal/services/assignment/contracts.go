package assignment

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/metrics"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

// AssignContracts добавляет пользователям userIDs связи с контрактами contractIDs.
// Существующие связи не удаляются. Возвращает число пользователей, у которых
// появилась хотя бы одна новая связь.
func (s *Service) AssignContracts(ctx context.Context, actor models.Principal, userIDs, contractIDs []string) (int, error) {
	const op = "assignment.AssignContracts"
	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actor.ID),
	)

	updated, err := s.assignContracts(ctx, op, log, actor, userIDs, contractIDs)
	if err != nil {
		metrics.AssignmentErrors.WithLabelValues("contracts", apperr.KindOf(err).String()).Inc()
		log.Warn("contract assignment failed", sl.Err(err), sl.Kind(err), slog.Int("updated", updated))
		return updated, err
	}
	log.Info("contracts assigned", slog.Int("users", len(userIDs)), slog.Int("updated", updated))
	return updated, nil
}

func (s *Service) assignContracts(ctx context.Context, op string, log *slog.Logger, actor models.Principal,
	userIDs, contractIDs []string) (int, error) {
	contractIDs = dedupe(contractIDs)
	userIDs = dedupe(userIDs)
	if len(contractIDs) == 0 {
		return 0, apperr.Validation("contract_ids must not be empty", "")
	}
	if len(userIDs) == 0 {
		return 0, apperr.Validation("user_ids must not be empty", "")
	}

	scope := hierarchy.For(actor)
	if scope.Empty() {
		return 0, apperr.Forbidden("role cannot manage assignments", actor.ID)
	}
	if err := s.requireContracts(ctx, op, contractIDs); err != nil {
		return 0, err
	}
	if err := s.authorize(ctx, op, scope, userIDs); err != nil {
		return 0, err
	}

	assignedBy := actor.ID
	updated := 0
	for _, userID := range userIDs {
		changed, err := s.applyContracts(ctx, userID, contractIDs, &assignedBy)
		if err != nil {
			return updated, txError(op, userID, err)
		}
		if !changed {
			continue
		}
		updated++
		s.publish(log, models.AssignmentEvent{
			UserID:       userID,
			ContractIDs:  contractIDs,
			AssignedByID: assignedBy,
		})
	}
	metrics.AssignedUsers.WithLabelValues("contracts").Add(float64(updated))
	return updated, nil
}

func (s *Service) applyContracts(ctx context.Context, userID string, contractIDs []string, assignedBy *string) (bool, error) {
	changed := false
	err := s.repo.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		for _, id := range contractIDs {
			inserted, err := tx.InsertContractAssignment(ctx, models.ContractAssignment{
				ContractID: id, UserID: userID, AssignedByID: assignedBy,
			})
			if err != nil {
				return err
			}
			changed = changed || inserted
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

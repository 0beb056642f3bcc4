package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/metrics"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// BackfillFailure ошибка обработки одного пользователя.
type BackfillFailure struct {
	UserID string `json:"user_id"`
	Err    string `json:"error"`
}

// BackfillReport итог заполнения каталога по умолчанию.
type BackfillReport struct {
	Processed int               `json:"processed"`
	Updated   int               `json:"updated"`
	Skipped   int               `json:"skipped"`
	Failures  []BackfillFailure `json:"failures,omitempty"`
}

// BackfillDefaultCatalog делает каталог defaultCatalogID основным для каждого
// платного пользователя. Каждый пользователь обрабатывается в своей транзакции,
// ошибки собираются в отчёт. Пользователи, у которых состояние уже верное,
// пропускаются без записей, поэтому повторный запуск ничего не меняет.
// Ошибка возвращается только если не удалось получить список пользователей
// или проверить каталог.
func (s *Service) BackfillDefaultCatalog(ctx context.Context, defaultCatalogID string) (BackfillReport, error) {
	const op = "assignment.BackfillDefaultCatalog"
	log := s.log.With(
		slog.String("op", op),
		slog.String("catalog_id", defaultCatalogID),
	)

	var report BackfillReport
	if defaultCatalogID == "" {
		return report, apperr.Validation("default catalog id must not be empty", "")
	}
	if err := s.requireCatalogs(ctx, op, []string{defaultCatalogID}); err != nil {
		return report, err
	}

	userIDs, err := s.repo.PaidUserIDs(ctx)
	if err != nil {
		return report, apperr.Storage(fmt.Errorf("%s: %w", op, err))
	}

	catalogIDs := []string{defaultCatalogID}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}
		report.Processed++

		changed, err := s.applyCatalogs(ctx, userID, catalogIDs, defaultCatalogID, nil)
		switch {
		case err != nil:
			log.Error("backfill failed for user", slog.String("user_id", userID), sl.Err(err), sl.Kind(err))
			report.Failures = append(report.Failures, BackfillFailure{UserID: userID, Err: err.Error()})
			metrics.BackfillUsers.WithLabelValues("failed").Inc()
		case changed:
			report.Updated++
			metrics.BackfillUsers.WithLabelValues("updated").Inc()
			s.afterCatalogChange(log, models.AssignmentEvent{
				UserID:           userID,
				CatalogIDs:       catalogIDs,
				PrimaryCatalogID: defaultCatalogID,
			})
		default:
			report.Skipped++
			metrics.BackfillUsers.WithLabelValues("skipped").Inc()
		}
	}

	log.Info("backfill finished",
		slog.Int("processed", report.Processed),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failures)),
	)
	return report, nil
}

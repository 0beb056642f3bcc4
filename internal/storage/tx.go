package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// Tx операции над назначениями одного пользователя внутри транзакции.
type Tx interface {
	// LockUser блокирует строку пользователя до конца транзакции.
	LockUser(ctx context.Context, userID string) (*models.User, error)
	// CatalogAssignments возвращает все назначения каталогов пользователя.
	CatalogAssignments(ctx context.Context, userID string) ([]models.CatalogAssignment, error)
	// UpsertCatalogAssignment создаёт связь или обновляет её флаг основного каталога.
	UpsertCatalogAssignment(ctx context.Context, a models.CatalogAssignment) error
	// DemotePrimaries снимает флаг основного со всех связей пользователя, кроме keepCatalogID.
	DemotePrimaries(ctx context.Context, userID, keepCatalogID string) (int64, error)
	// SetPrimaryCatalog обновляет кэшированный основной каталог пользователя.
	SetPrimaryCatalog(ctx context.Context, userID string, catalogID *string) error
	// InsertContractAssignment создаёт связь с контрактом, если её ещё нет.
	InsertContractAssignment(ctx context.Context, a models.ContractAssignment) (bool, error)
}

// InTx выполняет fn в отдельной транзакции. Ошибка fn откатывает транзакцию,
// иначе транзакция фиксируется.
func (s *Storage) InTx(ctx context.Context, fn func(tx Tx) error) error {
	const op = "storage.InTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(&assignmentTx{q: tx}); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Join(err, fmt.Errorf("%s: rollback: %w", op, rErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

type assignmentTx struct {
	q querier
}

func (t *assignmentTx) LockUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.LockUser"
	if len(parseIDs([]string{userID})) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 FOR UPDATE`
	u, err := scanUser(t.q.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (t *assignmentTx) CatalogAssignments(ctx context.Context, userID string) ([]models.CatalogAssignment, error) {
	const op = "storage.CatalogAssignments"

	query := `SELECT catalog_id, user_id, is_primary, assigned_by_id, created_at, updated_at
			  FROM catalog_assignments
			  WHERE user_id = $1
			  ORDER BY created_at, catalog_id`
	rows, err := t.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.CatalogAssignment
	for rows.Next() {
		var a models.CatalogAssignment
		var assignedBy sql.NullString
		if err := rows.Scan(&a.CatalogID, &a.UserID, &a.IsPrimary, &assignedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.AssignedByID = nullString(assignedBy)
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (t *assignmentTx) UpsertCatalogAssignment(ctx context.Context, a models.CatalogAssignment) error {
	const op = "storage.UpsertCatalogAssignment"

	query := `INSERT INTO catalog_assignments (catalog_id, user_id, is_primary, assigned_by_id)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (catalog_id, user_id) DO UPDATE
			  SET is_primary = EXCLUDED.is_primary,
			      assigned_by_id = COALESCE(EXCLUDED.assigned_by_id, catalog_assignments.assigned_by_id),
			      updated_at = NOW()`
	if _, err := t.q.ExecContext(ctx, query, a.CatalogID, a.UserID, a.IsPrimary, a.AssignedByID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *assignmentTx) DemotePrimaries(ctx context.Context, userID, keepCatalogID string) (int64, error) {
	const op = "storage.DemotePrimaries"

	query := `UPDATE catalog_assignments
			  SET is_primary = FALSE, updated_at = NOW()
			  WHERE user_id = $1 AND catalog_id <> $2 AND is_primary`
	res, err := t.q.ExecContext(ctx, query, userID, keepCatalogID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (t *assignmentTx) SetPrimaryCatalog(ctx context.Context, userID string, catalogID *string) error {
	const op = "storage.SetPrimaryCatalog"

	if _, err := t.q.ExecContext(ctx, `UPDATE users SET primary_catalog_id = $1 WHERE id = $2`, catalogID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *assignmentTx) InsertContractAssignment(ctx context.Context, a models.ContractAssignment) (bool, error) {
	const op = "storage.InsertContractAssignment"

	query := `INSERT INTO contract_assignments (contract_id, user_id, assigned_by_id)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (contract_id, user_id) DO NOTHING`
	res, err := t.q.ExecContext(ctx, query, a.ContractID, a.UserID, a.AssignedByID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

const userColumns = `u.id, u.email, u.name, u.role, u.primary_catalog_id,
	u.assigned_to_distributor_id, u.assigned_to_rsm_id, u.account_id, u.is_active, u.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	var primary, distributor, rsm, account sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &primary,
		&distributor, &rsm, &account, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.PrimaryCatalogID = nullString(primary)
	u.AssignedToDistributorID = nullString(distributor)
	u.AssignedToRsmID = nullString(rsm)
	u.AccountID = nullString(account)
	return &u, nil
}

// UsersByIDs возвращает найденных пользователей; отсутствующие идентификаторы пропускаются.
func (s *Storage) UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	const op = "storage.UsersByIDs"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}
	uuids := parseIDs(ids)
	if len(uuids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = ANY($1::uuid[])`
	rows, err := s.DB.QueryContext(ctx, query, uuids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// PaidUserIDs возвращает идентификаторы всех пользователей с ролью выше FREE.
func (s *Storage) PaidUserIDs(ctx context.Context) ([]string, error) {
	const op = "storage.PaidUserIDs"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM users WHERE role <> $1 ORDER BY created_at, id`, string(models.RoleFree))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// scopeClause переводит область управления в условие WHERE по таблице users с алиасом u.
// Параметр области занимает позицию $n.
func scopeClause(scope hierarchy.Scope, n int) (string, []any) {
	switch scope.Kind {
	case hierarchy.KindAll:
		return "TRUE", nil
	case hierarchy.KindDistributor:
		return fmt.Sprintf("u.assigned_to_distributor_id = $%d", n), []any{scope.ActorID}
	case hierarchy.KindRSM:
		return fmt.Sprintf(`(u.assigned_to_rsm_id = $%[1]d OR u.assigned_to_distributor_id IN (
			SELECT d.id FROM users d WHERE d.role = '%[2]s' AND d.assigned_to_rsm_id = $%[1]d))`,
			n, models.RoleDistributorRep), []any{scope.ActorID}
	default:
		return "FALSE", nil
	}
}

// ListUsers возвращает страницу пользователей в пределах области управления
// вместе с назначенными каталогами и контрактами, а также общее число строк.
func (s *Storage) ListUsers(ctx context.Context, scope hierarchy.Scope, filter models.UsersFilter) ([]*models.UserAssignments, int, error) {
	const op = "storage.ListUsers"
	if err := ctxErr(ctx, op); err != nil {
		return nil, 0, err
	}

	where, args := scopeClause(scope, 1)
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (u.email ILIKE $%[1]d OR u.name ILIKE $%[1]d)", len(args))
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE %s ORDER BY u.created_at, u.id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserAssignments
	byID := make(map[string]*models.UserAssignments)
	var ids []string
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		item := &models.UserAssignments{
			User:              *u,
			AssignedCatalogs:  []models.CatalogRef{},
			AssignedContracts: []models.ContractRef{},
		}
		result = append(result, item)
		byID[u.ID] = item
		ids = append(ids, u.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return result, total, nil
	}

	if err := s.annotateCatalogs(ctx, ids, byID); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.annotateContracts(ctx, ids, byID); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

func (s *Storage) annotateCatalogs(ctx context.Context, ids []string, byID map[string]*models.UserAssignments) error {
	query := `SELECT ca.user_id, c.id, c.name, ca.is_primary
			  FROM catalog_assignments ca
			  JOIN catalogs c ON c.id = ca.catalog_id
			  WHERE ca.user_id = ANY($1::uuid[])
			  ORDER BY ca.is_primary DESC, c.name`
	rows, err := s.DB.QueryContext(ctx, query, parseIDs(ids))
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var userID string
		var ref models.CatalogRef
		if err := rows.Scan(&userID, &ref.ID, &ref.Name, &ref.IsPrimary); err != nil {
			return err
		}
		item, ok := byID[userID]
		if !ok {
			continue
		}
		item.AssignedCatalogs = append(item.AssignedCatalogs, ref)
		if ref.IsPrimary {
			primary := ref
			item.PrimaryCatalog = &primary
		}
	}
	return rows.Err()
}

func (s *Storage) annotateContracts(ctx context.Context, ids []string, byID map[string]*models.UserAssignments) error {
	query := `SELECT ca.user_id, pc.id, pc.name
			  FROM contract_assignments ca
			  JOIN price_contracts pc ON pc.id = ca.contract_id
			  WHERE ca.user_id = ANY($1::uuid[])
			  ORDER BY pc.name`
	rows, err := s.DB.QueryContext(ctx, query, parseIDs(ids))
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var userID string
		var ref models.ContractRef
		if err := rows.Scan(&userID, &ref.ID, &ref.Name); err != nil {
			return err
		}
		if item, ok := byID[userID]; ok {
			item.AssignedContracts = append(item.AssignedContracts, ref)
		}
	}
	return rows.Err()
}

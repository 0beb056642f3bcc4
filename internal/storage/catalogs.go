package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

const catalogColumns = `id, name, is_master, is_default, is_active, is_public, margin, created_at`

// CatalogFlag флаг каталога-одиночки.
type CatalogFlag string

const (
	FlagMaster  CatalogFlag = "is_master"
	FlagDefault CatalogFlag = "is_default"
)

func scanCatalog(row rowScanner) (*models.Catalog, error) {
	var c models.Catalog
	var margin sql.NullFloat64
	if err := row.Scan(&c.ID, &c.Name, &c.IsMaster, &c.IsDefault, &c.IsActive,
		&c.IsPublic, &margin, &c.CreatedAt); err != nil {
		return nil, err
	}
	if margin.Valid {
		m := margin.Float64
		c.Margin = &m
	}
	return &c, nil
}

// FindCatalogByFlag возвращает каталог, отмеченный флагом (мастер или по умолчанию).
func (s *Storage) FindCatalogByFlag(ctx context.Context, flag CatalogFlag) (*models.Catalog, error) {
	const op = "storage.FindCatalogByFlag"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}
	if flag != FlagMaster && flag != FlagDefault {
		return nil, fmt.Errorf("%s: unknown flag %q", op, flag)
	}

	query := `SELECT ` + catalogColumns + ` FROM catalogs WHERE ` + string(flag) + ` = TRUE ORDER BY created_at LIMIT 1`
	c, err := scanCatalog(s.DB.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// FindCatalogByName возвращает самый ранний каталог с указанным именем.
func (s *Storage) FindCatalogByName(ctx context.Context, name string) (*models.Catalog, error) {
	const op = "storage.FindCatalogByName"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + catalogColumns + ` FROM catalogs WHERE name = $1 ORDER BY created_at LIMIT 1`
	c, err := scanCatalog(s.DB.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// CreateCatalog вставляет каталог одной командой и возвращает сохранённую запись.
func (s *Storage) CreateCatalog(ctx context.Context, c models.Catalog) (*models.Catalog, error) {
	const op = "storage.CreateCatalog"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO catalogs (id, name, is_master, is_default, is_active, is_public, margin)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + catalogColumns
	created, err := scanCatalog(s.DB.QueryRowContext(ctx, query,
		c.ID, c.Name, c.IsMaster, c.IsDefault, c.IsActive, c.IsPublic, c.Margin))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// SetCatalogFlag выставляет флаг каталогу и делает его активным.
// Мастер-каталог при этом становится непубличным.
func (s *Storage) SetCatalogFlag(ctx context.Context, id string, flag CatalogFlag) (*models.Catalog, error) {
	const op = "storage.SetCatalogFlag"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}
	if flag != FlagMaster && flag != FlagDefault {
		return nil, fmt.Errorf("%s: unknown flag %q", op, flag)
	}

	set := string(flag) + ` = TRUE, is_active = TRUE`
	if flag == FlagMaster {
		set += `, is_public = FALSE`
	}
	query := `UPDATE catalogs SET ` + set + `
			  WHERE id = $1
			  RETURNING ` + catalogColumns
	c, err := scanCatalog(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// CatalogsByIDs возвращает найденные каталоги; отсутствующие идентификаторы пропускаются.
func (s *Storage) CatalogsByIDs(ctx context.Context, ids []string) ([]*models.Catalog, error) {
	const op = "storage.CatalogsByIDs"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}
	uuids := parseIDs(ids)
	if len(uuids) == 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+catalogColumns+` FROM catalogs WHERE id = ANY($1::uuid[])`, uuids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Catalog
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AssignedCatalogs возвращает активные каталоги, назначенные пользователю, основной первым.
func (s *Storage) AssignedCatalogs(ctx context.Context, userID string) ([]models.VisibleCatalog, error) {
	const op = "storage.AssignedCatalogs"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT c.id, c.name, c.is_master, ca.is_primary
			  FROM catalog_assignments ca
			  JOIN catalogs c ON c.id = ca.catalog_id
			  WHERE ca.user_id = $1 AND c.is_active
			  ORDER BY ca.is_primary DESC, c.name`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.VisibleCatalog
	for rows.Next() {
		var vc models.VisibleCatalog
		if err := rows.Scan(&vc.ID, &vc.Name, &vc.IsMaster, &vc.IsPrimary); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, vc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ContractsByIDs возвращает найденные прайс-контракты.
func (s *Storage) ContractsByIDs(ctx context.Context, ids []string) ([]*models.PriceContract, error) {
	const op = "storage.ContractsByIDs"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}
	uuids := parseIDs(ids)
	if len(uuids) == 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM price_contracts WHERE id = ANY($1::uuid[])`, uuids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PriceContract
	for rows.Next() {
		var pc models.PriceContract
		if err := rows.Scan(&pc.ID, &pc.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &pc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

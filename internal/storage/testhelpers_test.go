package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/catalog-entitlements/internal/migrations"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// TestDataFactory создаёт тестовые данные напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт пользователя и возвращает его ID.
func (f *TestDataFactory) CreateUser(t *testing.T, role models.Role, distributorID, rsmID *string) string {
	id := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, email, name, role, assigned_to_distributor_id, assigned_to_rsm_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, id+"@example.com", "user "+id[:8], string(role), distributorID, rsmID)
	require.NoError(t, err)
	return id
}

// CreateCatalog создаёт каталог и возвращает его ID.
func (f *TestDataFactory) CreateCatalog(t *testing.T, name string, active bool) string {
	id := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO catalogs (id, name, is_active) VALUES ($1, $2, $3)`, id, name, active)
	require.NoError(t, err)
	return id
}

// CreateContract создаёт прайс-контракт и возвращает его ID.
func (f *TestDataFactory) CreateContract(t *testing.T, name string) string {
	id := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO price_contracts (id, name) VALUES ($1, $2)`, id, name)
	require.NoError(t, err)
	return id
}

// Assign создаёт связь пользователя с каталогом.
func (f *TestDataFactory) Assign(t *testing.T, catalogID, userID string, primary bool) {
	_, err := f.storage.DB.Exec(`INSERT INTO catalog_assignments (catalog_id, user_id, is_primary) VALUES ($1, $2, $3)`,
		catalogID, userID, primary)
	require.NoError(t, err)
}

// PrimaryCount возвращает число основных связей пользователя.
func (f *TestDataFactory) PrimaryCount(t *testing.T, userID string) int {
	var n int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM catalog_assignments WHERE user_id = $1 AND is_primary`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}

func ptr(s string) *string { return &s }

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for i := 0; i < 10; i++ {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}

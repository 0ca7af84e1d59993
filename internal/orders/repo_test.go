package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  stripe_session_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  tire_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE tires (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func testOrder(tenantID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
		Total:         decimal.NewFromFloat(359.80),
		Status:        status,
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				TireID:    uuid.New(),
				Quantity:  2,
				UnitPrice: decimal.NewFromFloat(179.90),
			},
		},
	}
}

func TestRepositoryCreateAndFindScopedToTenant(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()

	order := testOrder(tenantID, enums.OrderStatusPending)
	require.NoError(t, repo.CreateTx(db, order))

	found, err := repo.FindForTenant(context.Background(), tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.True(t, found.Items[0].UnitPrice.Equal(decimal.NewFromFloat(179.90)))

	_, err = repo.FindForTenant(context.Background(), uuid.New(), order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByStripeSession(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	sessionID := "cs_test_123"
	order := testOrder(uuid.New(), enums.OrderStatusPending)
	order.StripeSessionID = &sessionID
	require.NoError(t, repo.CreateTx(db, order))

	found, err := repo.FindByStripeSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByStripeSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()

	require.NoError(t, repo.CreateTx(db, testOrder(tenantID, enums.OrderStatusPending)))
	require.NoError(t, repo.CreateTx(db, testOrder(tenantID, enums.OrderStatusShipped)))
	require.NoError(t, repo.CreateTx(db, testOrder(uuid.New(), enums.OrderStatusPending)))

	status := enums.OrderStatusShipped
	rows, total, err := repo.List(context.Background(), tenantID, ListOrdersQuery{
		Status: &status,
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusShipped, rows[0].Status)

	rows, total, err = repo.List(context.Background(), tenantID, ListOrdersQuery{
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestRepositoryUpdateStatusTx(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()

	order := testOrder(tenantID, enums.OrderStatusPending)
	require.NoError(t, repo.CreateTx(db, order))
	require.NoError(t, repo.UpdateStatusTx(db, order.ID, string(enums.OrderStatusProcessing)))

	found, err := repo.FindForTenant(context.Background(), tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, found.Status)
}

func TestRepositoryDecrementStockGuardsAgainstNegative(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	tenantID := uuid.New()
	tireID := uuid.New()

	require.NoError(t, db.Exec(
		`INSERT INTO tires (id, tenant_id, stock_qty) VALUES (?, ?, ?)`,
		tireID.String(), tenantID.String(), 5,
	).Error)

	ok, err := repo.DecrementStockTx(db, tenantID, tireID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStockTx(db, tenantID, tireID, 3)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient stock must not decrement")

	var remaining int
	require.NoError(t, db.Raw(`SELECT stock_qty FROM tires WHERE id = ?`, tireID.String()).Scan(&remaining).Error)
	assert.Equal(t, 2, remaining)
}

package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx persists an order with its items inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Create(order).Error
}

// FindForTenant loads an order with its items, scoped to the tenant.
func (r *Repository) FindForTenant(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Preload("Items").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByStripeSession loads the order created for a checkout session.
func (r *Repository) FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		Preload("Items").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a page of the tenant's orders, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, q ListOrdersQuery) ([]models.Order, int64, error) {
	build := func() *gorm.DB {
		qb := r.db.WithContext(ctx).Model(&models.Order{}).
			Where("tenant_id = ?", tenantID)
		if q.Status != nil {
			qb = qb.Where("status = ?", *q.Status)
		}
		return qb
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Order
	err := build().
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Preload("Items").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatusTx moves the order to the new status inside the transaction.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, orderID uuid.UUID, status string) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

// DecrementStockTx subtracts quantity from a tenant's tire row, guarding
// against going negative. Returns false when stock was insufficient.
func (r *Repository) DecrementStockTx(tx *gorm.DB, tenantID, tireID uuid.UUID, quantity int) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Tire{}).
		Where("tenant_id = ? AND id = ? AND stock_qty >= ?", tenantID, tireID, quantity).
		Update("stock_qty", gorm.Expr("stock_qty - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

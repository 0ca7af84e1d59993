package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles inventory rows and the tire stock columns the
// propagator touches.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindTireForTenant loads a tire scoped to its owning tenant.
func (r *Repository) FindTireForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, tireID).
		First(&tire).Error
	if err != nil {
		return nil, err
	}
	return &tire, nil
}

// UpsertRecord writes the inventory row for (tenant, tire), creating it when
// absent. Re-running with the same quantity is a no-op overwrite.
func (r *Repository) UpsertRecord(ctx context.Context, tenantID, tireID uuid.UUID, quantity int) error {
	record := models.InventoryRecord{
		TenantID:  tenantID,
		TireID:    tireID,
		Quantity:  quantity,
		Available: quantity > 0,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "tire_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "available", "updated_at"}),
		}).
		Create(&record).Error
}

// FindRecord loads the inventory row for (tenant, tire).
func (r *Repository) FindRecord(ctx context.Context, tenantID, tireID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND tire_id = ?", tenantID, tireID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetTireStock overwrites the stock quantity on a tenant's own tire row.
func (r *Repository) SetTireStock(ctx context.Context, tenantID, tireID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Tire{}).
		Where("tenant_id = ? AND id = ?", tenantID, tireID).
		Update("stock_qty", quantity).Error
}

// SetTireStockBySKU overwrites the stock quantity on every row of the tenant
// matching the SKU and reports how many rows changed. Reseller catalog copies
// are separate rows, so the match key is the SKU, not the tire id.
func (r *Repository) SetTireStockBySKU(ctx context.Context, tenantID uuid.UUID, sku string, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Tire{}).
		Where("tenant_id = ? AND sku = ?", tenantID, sku).
		Update("stock_qty", quantity)
	return res.RowsAffected, res.Error
}

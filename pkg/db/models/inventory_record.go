package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord mirrors per-tenant availability for a tire. The distributor's
// sync fan-out upserts one row per tenant carrying the tire.
type InventoryRecord struct {
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	TireID    uuid.UUID `gorm:"column:tire_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	Available bool      `gorm:"column:available;not null;default:true"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

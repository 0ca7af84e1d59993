package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// TenantCreatedEvent signals a new reseller storefront going live.
type TenantCreatedEvent struct {
	TenantID    uuid.UUID        `json:"tenant_id"`
	ParentID    *uuid.UUID       `json:"parent_id,omitempty"`
	Slug        string           `json:"slug"`
	Type        enums.TenantType `json:"type"`
	TiresCopied int              `json:"tires_copied"`
}

// StockSyncedEvent reports one fan-out pass of distributor stock to resellers.
type StockSyncedEvent struct {
	TenantID     uuid.UUID  `json:"tenant_id"`
	TireID       *uuid.UUID `json:"tire_id,omitempty"`
	SKU          string     `json:"sku,omitempty"`
	TenantsTotal int        `json:"tenants_total"`
	RowsUpserted int        `json:"rows_upserted"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// OrderCreatedEvent is emitted when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	CustomerEmail string          `json:"customer_email"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
}

// OrderStatusChangedEvent records a legal order status transition.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	TenantID uuid.UUID         `json:"tenant_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
}

// SensorReadingRecordedEvent carries one TPMS reading plus derived alerts.
type SensorReadingRecordedEvent struct {
	SensorID     string    `json:"sensor_id"`
	VehicleID    uuid.UUID `json:"vehicle_id"`
	Pressure     *float64  `json:"pressure,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	BatteryLevel *float64  `json:"battery_level,omitempty"`
	AlertCount   int       `json:"alert_count"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// RetreadRecordedEvent is emitted for every accepted retread cycle.
type RetreadRecordedEvent struct {
	RetreadID   uuid.UUID          `json:"retread_id"`
	TireID      uuid.UUID          `json:"tire_id"`
	CasingID    string             `json:"casing_id"`
	CycleNumber int                `json:"cycle_number"`
	Grade       enums.RetreadGrade `json:"grade"`
	EcoScore    decimal.Decimal    `json:"eco_score"`
}

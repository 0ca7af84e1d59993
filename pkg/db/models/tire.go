package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Tire is a tenant's listing. Reseller rows copied from the distributor keep
// ParentTenantID so stock fan-out can find them.
type Tire struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_tires_tenant_sku"`
	ParentTenantID *uuid.UUID `gorm:"column:parent_tenant_id;type:uuid"`
	SKU            string     `gorm:"column:sku;not null;uniqueIndex:idx_tires_tenant_sku"`
	Name           string     `gorm:"column:name;not null"`
	Description    *string    `gorm:"column:description"`
	BrandID        *uuid.UUID `gorm:"column:brand_id;type:uuid"`
	CategoryID     *uuid.UUID `gorm:"column:category_id;type:uuid"`

	Width       int    `gorm:"column:width;not null"`
	AspectRatio int    `gorm:"column:aspect_ratio;not null"`
	RimDiameter int    `gorm:"column:rim_diameter;not null"`
	LoadIndex   *int   `gorm:"column:load_index"`
	SpeedRating string `gorm:"column:speed_rating;not null;default:''"`

	VehicleType enums.VehicleType `gorm:"column:vehicle_type;type:vehicle_type;not null"`
	Season      enums.Season      `gorm:"column:season;type:season;not null"`

	BasePrice decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null"`
	Margin    *decimal.Decimal `gorm:"column:margin;type:numeric(6,4)"`

	StockQty int  `gorm:"column:stock_qty;not null;default:0"`
	MinStock int  `gorm:"column:min_stock;not null;default:0"`
	MaxStock *int `gorm:"column:max_stock"`

	Visible  bool `gorm:"column:visible;not null;default:true"`
	Featured bool `gorm:"column:featured;not null;default:false"`

	Retreadable    bool            `gorm:"column:retreadable;not null;default:false"`
	MaxRetreads    int             `gorm:"column:max_retreads;not null;default:0"`
	EcoScore       decimal.Decimal `gorm:"column:eco_score;type:numeric(4,3);not null;default:1.0"`
	CasingID       *string         `gorm:"column:casing_id;index"`
	WarrantyMonths int             `gorm:"column:warranty_months;not null;default:0"`

	Images pq.StringArray `gorm:"column:images;type:text[]"`

	Brand     *Brand        `gorm:"foreignKey:BrandID"`
	Category  *TireCategory `gorm:"foreignKey:CategoryID"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// BrowseQuery carries the optional storefront filters. Price bounds are in
// final-price space; the service converts them before querying.
type BrowseQuery struct {
	Search      string
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	VehicleType *enums.VehicleType
	Season      *enums.Season
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        enums.CatalogSort
	Page        pagination.Params
}

// CatalogItem is a storefront row with the computed final price attached.
type CatalogItem struct {
	ID          uuid.UUID         `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Brand       *string           `json:"brand,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Size        string            `json:"size"`
	VehicleType enums.VehicleType `json:"vehicle_type"`
	Season      enums.Season      `json:"season"`
	FinalPrice  decimal.Decimal   `json:"final_price"`
	StockQty    int               `json:"stock_qty"`
	Featured    bool              `json:"featured"`
	EcoScore    decimal.Decimal   `json:"eco_score"`
	Images      []string          `json:"images"`
}

// CatalogPage is the storefront listing response.
type CatalogPage struct {
	Items []CatalogItem   `json:"items"`
	Page  pagination.Page `json:"page"`
}

// TireDTO is the full tenant-facing tire shape used on B2B routes.
type TireDTO struct {
	ID          uuid.UUID         `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	BrandID     *uuid.UUID        `json:"brand_id,omitempty"`
	CategoryID  *uuid.UUID        `json:"category_id,omitempty"`
	Width       int               `json:"width"`
	AspectRatio int               `json:"aspect_ratio"`
	RimDiameter int               `json:"rim_diameter"`
	LoadIndex   *int              `json:"load_index,omitempty"`
	SpeedRating string            `json:"speed_rating"`
	VehicleType enums.VehicleType `json:"vehicle_type"`
	Season      enums.Season      `json:"season"`
	BasePrice   decimal.Decimal   `json:"base_price"`
	Margin      *decimal.Decimal  `json:"margin,omitempty"`
	StockQty    int               `json:"stock_qty"`
	MinStock    int               `json:"min_stock"`
	MaxStock    *int              `json:"max_stock,omitempty"`
	Visible     bool              `json:"visible"`
	Featured    bool              `json:"featured"`
	Retreadable bool              `json:"retreadable"`
	MaxRetreads int               `json:"max_retreads"`
	EcoScore    decimal.Decimal   `json:"eco_score"`
	CasingID    *string           `json:"casing_id,omitempty"`
	Images      []string          `json:"images"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CreateTireInput captures a new listing for the authenticated tenant.
type CreateTireInput struct {
	SKU         string            `json:"sku" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Description *string           `json:"description"`
	BrandID     *uuid.UUID        `json:"brand_id"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	Width       int               `json:"width" validate:"required,gt=0"`
	AspectRatio int               `json:"aspect_ratio" validate:"required,gt=0"`
	RimDiameter int               `json:"rim_diameter" validate:"required,gt=0"`
	LoadIndex   *int              `json:"load_index"`
	SpeedRating string            `json:"speed_rating"`
	VehicleType enums.VehicleType `json:"vehicle_type" validate:"required"`
	Season      enums.Season      `json:"season" validate:"required"`
	BasePrice   decimal.Decimal   `json:"base_price" validate:"required"`
	Margin      *decimal.Decimal  `json:"margin"`
	StockQty    int               `json:"stock_qty" validate:"gte=0"`
	MinStock    int               `json:"min_stock" validate:"gte=0"`
	MaxStock    *int              `json:"max_stock"`
	Visible     *bool             `json:"visible"`
	Featured    bool              `json:"featured"`
	Retreadable bool              `json:"retreadable"`
	MaxRetreads int               `json:"max_retreads" validate:"gte=0"`
	CasingID    *string           `json:"casing_id"`
	Images      []string          `json:"images"`
}

// UpdateTireInput captures the mutable listing fields.
type UpdateTireInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Margin      *decimal.Decimal `json:"margin"`
	StockQty    *int             `json:"stock_qty"`
	MinStock    *int             `json:"min_stock"`
	MaxStock    *int             `json:"max_stock"`
	Visible     *bool            `json:"visible"`
	Featured    *bool            `json:"featured"`
	Retreadable *bool            `json:"retreadable"`
	MaxRetreads *int             `json:"max_retreads"`
	Images      []string         `json:"images"`
}

// ListTiresQuery is the B2B listing filter (includes hidden rows).
type ListTiresQuery struct {
	Search  string
	Visible *bool
	Page    pagination.Params
}

func sizeLabel(t *models.Tire) string {
	return fmt.Sprintf("%d/%dR%d", t.Width, t.AspectRatio, t.RimDiameter)
}

func toItem(t *models.Tire, tenantMargin decimal.Decimal) CatalogItem {
	item := CatalogItem{
		ID:          t.ID,
		SKU:         t.SKU,
		Name:        t.Name,
		Description: t.Description,
		Size:        sizeLabel(t),
		VehicleType: t.VehicleType,
		Season:      t.Season,
		FinalPrice:  FinalPrice(t.BasePrice, EffectiveMargin(tenantMargin, t.Margin)),
		StockQty:    t.StockQty,
		Featured:    t.Featured,
		EcoScore:    t.EcoScore,
		Images:      t.Images,
	}
	if t.Brand != nil {
		item.Brand = &t.Brand.Name
	}
	if t.Category != nil {
		item.Category = &t.Category.Name
	}
	return item
}

func toTireDTO(t *models.Tire) *TireDTO {
	if t == nil {
		return nil
	}
	return &TireDTO{
		ID:          t.ID,
		SKU:         t.SKU,
		Name:        t.Name,
		Description: t.Description,
		BrandID:     t.BrandID,
		CategoryID:  t.CategoryID,
		Width:       t.Width,
		AspectRatio: t.AspectRatio,
		RimDiameter: t.RimDiameter,
		LoadIndex:   t.LoadIndex,
		SpeedRating: t.SpeedRating,
		VehicleType: t.VehicleType,
		Season:      t.Season,
		BasePrice:   t.BasePrice,
		Margin:      t.Margin,
		StockQty:    t.StockQty,
		MinStock:    t.MinStock,
		MaxStock:    t.MaxStock,
		Visible:     t.Visible,
		Featured:    t.Featured,
		Retreadable: t.Retreadable,
		MaxRetreads: t.MaxRetreads,
		EcoScore:    t.EcoScore,
		CasingID:    t.CasingID,
		Images:      t.Images,
		CreatedAt:   t.CreatedAt,
	}
}

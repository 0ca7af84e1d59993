package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// Filters is the repository-level predicate. Price bounds are already in
// base-price space by the time they reach here.
type Filters struct {
	Search       string
	BrandID      *uuid.UUID
	CategoryID   *uuid.UUID
	VehicleType  *enums.VehicleType
	Season       *enums.Season
	MinBasePrice *decimal.Decimal
	MaxBasePrice *decimal.Decimal
	Sort         enums.CatalogSort
	Page         pagination.Params
}

// Repository handles tire persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to tire operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) visibleQuery(ctx context.Context, tenantID uuid.UUID, parentTenantID *uuid.UUID, f Filters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Tire{}).
		Joins("LEFT JOIN brands ON brands.id = tires.brand_id").
		Where("tires.tenant_id = ?", tenantID).
		Where("tires.visible AND tires.stock_qty > 0")
	if parentTenantID != nil {
		q = q.Where("tires.parent_tenant_id = ?", *parentTenantID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(
			"tires.name ILIKE ? OR tires.description ILIKE ? OR tires.sku ILIKE ? OR brands.name ILIKE ?",
			like, like, like, like,
		)
	}
	if f.BrandID != nil {
		q = q.Where("tires.brand_id = ?", *f.BrandID)
	}
	if f.CategoryID != nil {
		q = q.Where("tires.category_id = ?", *f.CategoryID)
	}
	if f.VehicleType != nil {
		q = q.Where("tires.vehicle_type = ?", *f.VehicleType)
	}
	if f.Season != nil {
		q = q.Where("tires.season = ?", *f.Season)
	}
	if f.MinBasePrice != nil {
		q = q.Where("tires.base_price >= ?", *f.MinBasePrice)
	}
	if f.MaxBasePrice != nil {
		q = q.Where("tires.base_price <= ?", *f.MaxBasePrice)
	}
	return q
}

// ListVisible returns the storefront rows matching the filters plus the total
// count for the same predicate without pagination.
func (r *Repository) ListVisible(ctx context.Context, tenantID uuid.UUID, parentTenantID *uuid.UUID, f Filters) ([]models.Tire, int64, error) {
	var total int64
	if err := r.visibleQuery(ctx, tenantID, parentTenantID, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	var rows []models.Tire
	err := r.visibleQuery(ctx, tenantID, parentTenantID, f).
		Order(orderClause(f.Sort)).
		Limit(page.Limit).
		Offset(f.Page.Offset()).
		Preload("Brand").
		Preload("Category").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderClause(sort enums.CatalogSort) string {
	switch sort {
	case enums.CatalogSortPriceAsc:
		return "tires.base_price ASC"
	case enums.CatalogSortPriceDesc:
		return "tires.base_price DESC"
	case enums.CatalogSortNameAsc:
		return "tires.name ASC"
	case enums.CatalogSortNameDesc:
		return "tires.name DESC"
	default:
		return "tires.featured DESC, tires.created_at DESC"
	}
}

// FindByIDForTenant loads a tire scoped to its owning tenant.
func (r *Repository) FindByIDForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, tireID).
		Preload("Brand").
		Preload("Category").
		First(&tire).Error
	if err != nil {
		return nil, err
	}
	return &tire, nil
}

// ListForTenant returns the tenant's own rows, hidden ones included.
func (r *Repository) ListForTenant(ctx context.Context, tenantID uuid.UUID, q ListTiresQuery) ([]models.Tire, int64, error) {
	build := func() *gorm.DB {
		qb := r.db.WithContext(ctx).Model(&models.Tire{}).
			Where("tenant_id = ?", tenantID)
		if s := strings.TrimSpace(q.Search); s != "" {
			like := "%" + s + "%"
			qb = qb.Where("name ILIKE ? OR sku ILIKE ?", like, like)
		}
		if q.Visible != nil {
			qb = qb.Where("visible = ?", *q.Visible)
		}
		return qb
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Tire
	err := build().
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create persists a new tire.
func (r *Repository) Create(ctx context.Context, tire *models.Tire) error {
	if tire == nil {
		return fmt.Errorf("tire is required")
	}
	return r.db.WithContext(ctx).Create(tire).Error
}

// Update saves the provided tire.
func (r *Repository) Update(ctx context.Context, tire *models.Tire) error {
	if tire == nil {
		return fmt.Errorf("tire is required")
	}
	return r.db.WithContext(ctx).Save(tire).Error
}

// CopyCatalogTx duplicates every tire of the source tenant into the target
// tenant inside the given transaction. Copies keep the source SKU so stock
// fan-out can match them, carry ParentTenantID, and inherit the tenant margin
// (no per-tire override).
func (r *Repository) CopyCatalogTx(tx *gorm.DB, fromTenantID, toTenantID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}

	var source []models.Tire
	if err := tx.Where("tenant_id = ?", fromTenantID).Find(&source).Error; err != nil {
		return 0, err
	}
	if len(source) == 0 {
		return 0, nil
	}

	copies := make([]models.Tire, 0, len(source))
	for _, t := range source {
		t.ID = uuid.Nil
		t.TenantID = toTenantID
		t.ParentTenantID = &fromTenantID
		t.Margin = nil
		t.Visible = true
		t.Brand = nil
		t.Category = nil
		copies = append(copies, t)
	}
	if err := tx.CreateInBatches(&copies, 100).Error; err != nil {
		return 0, err
	}
	return len(copies), nil
}

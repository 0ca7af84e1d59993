package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

var marginCeiling = decimal.NewFromInt(1)

type tireRepository interface {
	ListVisible(ctx context.Context, tenantID uuid.UUID, parentTenantID *uuid.UUID, f Filters) ([]models.Tire, int64, error)
	FindByIDForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, q ListTiresQuery) ([]models.Tire, int64, error)
	Create(ctx context.Context, tire *models.Tire) error
	Update(ctx context.Context, tire *models.Tire) error
}

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Service exposes the storefront projection and the B2B tire operations.
type Service interface {
	Browse(ctx context.Context, tenantID uuid.UUID, q BrowseQuery) (*CatalogPage, error)
	GetItem(ctx context.Context, tenantID, tireID uuid.UUID) (*CatalogItem, error)
	ListTires(ctx context.Context, tenantID uuid.UUID, q ListTiresQuery) ([]TireDTO, pagination.Page, error)
	GetTire(ctx context.Context, tenantID, tireID uuid.UUID) (*TireDTO, error)
	CreateTire(ctx context.Context, tenantID uuid.UUID, input CreateTireInput) (*TireDTO, error)
	UpdateTire(ctx context.Context, tenantID, tireID uuid.UUID, input UpdateTireInput) (*TireDTO, error)
}

type service struct {
	repo    tireRepository
	tenants tenantFinder
	logg    *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo tireRepository, tenants tenantFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tire repository required")
	}
	if tenants == nil {
		return nil, fmt.Errorf("tenant finder required")
	}
	return &service{repo: repo, tenants: tenants, logg: logg}, nil
}

// Browse runs the storefront projection for the resolved tenant. Price bounds
// arrive in final-price space and are divided by (1 + tenant margin) so the
// filter runs against stored base prices; every returned row carries
// finalPrice = basePrice * (1 + effective margin), where a per-tire margin
// override wins over the tenant margin.
func (s *service) Browse(ctx context.Context, tenantID uuid.UUID, q BrowseQuery) (*CatalogPage, error) {
	tenant, err := s.activeTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	filters := Filters{
		Search:      q.Search,
		BrandID:     q.BrandID,
		CategoryID:  q.CategoryID,
		VehicleType: q.VehicleType,
		Season:      q.Season,
		Sort:        q.Sort,
		Page:        q.Page,
	}
	if q.MinPrice != nil {
		min := ToBasePriceBound(*q.MinPrice, tenant.Margin)
		filters.MinBasePrice = &min
	}
	if q.MaxPrice != nil {
		max := ToBasePriceBound(*q.MaxPrice, tenant.Margin)
		filters.MaxBasePrice = &max
	}

	rows, total, err := s.repo.ListVisible(ctx, tenant.ID, projectionParent(tenant), filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}

	items := make([]CatalogItem, 0, len(rows))
	for i := range rows {
		items = append(items, toItem(&rows[i], tenant.Margin))
	}
	return &CatalogPage{Items: items, Page: pagination.NewPage(q.Page, total)}, nil
}

// GetItem returns a single storefront row with its final price.
func (s *service) GetItem(ctx context.Context, tenantID, tireID uuid.UUID) (*CatalogItem, error) {
	tenant, err := s.activeTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tire, err := s.repo.FindByIDForTenant(ctx, tenant.ID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}
	if !tire.Visible || tire.StockQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	item := toItem(tire, tenant.Margin)
	return &item, nil
}

func (s *service) ListTires(ctx context.Context, tenantID uuid.UUID, q ListTiresQuery) ([]TireDTO, pagination.Page, error) {
	rows, total, err := s.repo.ListForTenant(ctx, tenantID, q)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tires")
	}
	out := make([]TireDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toTireDTO(&rows[i]))
	}
	return out, pagination.NewPage(q.Page, total), nil
}

func (s *service) GetTire(ctx context.Context, tenantID, tireID uuid.UUID) (*TireDTO, error) {
	tire, err := s.repo.FindByIDForTenant(ctx, tenantID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}
	return toTireDTO(tire), nil
}

func (s *service) CreateTire(ctx context.Context, tenantID uuid.UUID, input CreateTireInput) (*TireDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if err := validateMarginOverride(input.Margin); err != nil {
		return nil, err
	}
	if !input.VehicleType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
	}
	if !input.Season.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid season")
	}

	visible := true
	if input.Visible != nil {
		visible = *input.Visible
	}
	tire := &models.Tire{
		TenantID:    tenantID,
		SKU:         sku,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BrandID:     input.BrandID,
		CategoryID:  input.CategoryID,
		Width:       input.Width,
		AspectRatio: input.AspectRatio,
		RimDiameter: input.RimDiameter,
		LoadIndex:   input.LoadIndex,
		SpeedRating: strings.ToUpper(strings.TrimSpace(input.SpeedRating)),
		VehicleType: input.VehicleType,
		Season:      input.Season,
		BasePrice:   input.BasePrice,
		Margin:      input.Margin,
		StockQty:    input.StockQty,
		MinStock:    input.MinStock,
		MaxStock:    input.MaxStock,
		Visible:     visible,
		Featured:    input.Featured,
		Retreadable: input.Retreadable,
		MaxRetreads: input.MaxRetreads,
		EcoScore:    decimal.NewFromInt(1),
		CasingID:    input.CasingID,
		Images:      input.Images,
	}

	if err := s.repo.Create(ctx, tire); err != nil {
		if db.IsUniqueViolation(err, "idx_tires_tenant_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists for this tenant")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tire")
	}
	return toTireDTO(tire), nil
}

func (s *service) UpdateTire(ctx context.Context, tenantID, tireID uuid.UUID, input UpdateTireInput) (*TireDTO, error) {
	tire, err := s.repo.FindByIDForTenant(ctx, tenantID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}

	if input.BasePrice != nil {
		if !input.BasePrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
		}
		tire.BasePrice = *input.BasePrice
	}
	if input.Margin != nil {
		if err := validateMarginOverride(input.Margin); err != nil {
			return nil, err
		}
		tire.Margin = input.Margin
	}
	if input.Name != nil {
		tire.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		tire.Description = input.Description
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be >= 0")
		}
		tire.StockQty = *input.StockQty
	}
	if input.MinStock != nil {
		tire.MinStock = *input.MinStock
	}
	if input.MaxStock != nil {
		tire.MaxStock = input.MaxStock
	}
	if input.Visible != nil {
		tire.Visible = *input.Visible
	}
	if input.Featured != nil {
		tire.Featured = *input.Featured
	}
	if input.Retreadable != nil {
		tire.Retreadable = *input.Retreadable
	}
	if input.MaxRetreads != nil {
		tire.MaxRetreads = *input.MaxRetreads
	}
	if input.Images != nil {
		tire.Images = input.Images
	}

	if err := s.repo.Update(ctx, tire); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tire")
	}
	return toTireDTO(tire), nil
}

func (s *service) activeTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	if !tenant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
	}
	return tenant, nil
}

// projectionParent pins reseller projections to rows copied from their
// distributor. Distributor storefronts serve their own canonical rows.
func projectionParent(t *models.Tenant) *uuid.UUID {
	if t.Type == enums.TenantTypeReseller {
		return t.ParentID
	}
	return nil
}

func validateMarginOverride(m *decimal.Decimal) error {
	if m == nil {
		return nil
	}
	if m.IsNegative() || m.GreaterThanOrEqual(marginCeiling) {
		return pkgerrors.New(pkgerrors.CodeValidation, "margin must be in [0, 1)")
	}
	return nil
}

func tireNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
}

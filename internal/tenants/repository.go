package tenants

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Repository handles tenant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to tenant operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a tenant by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindDistributor returns the root distributor tenant.
func (r *Repository) FindDistributor(ctx context.Context) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("type = ? AND is_active", enums.TenantTypeDistributor).
		Order("created_at ASC").
		First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindActiveBySlug returns an active reseller matching the subdomain label.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND type = ? AND is_active", slug, enums.TenantTypeReseller).
		First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindActiveByCustomDomain returns an active tenant with the exact custom domain.
func (r *Repository) FindActiveByCustomDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("custom_domain = ? AND is_active", domain).
		First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ListChildren returns all tenants whose parent is the given tenant.
func (r *Repository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// CreateTx persists a new tenant inside the provided transaction.
func (r *Repository) CreateTx(tx *gorm.DB, tenant *models.Tenant) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if tenant == nil {
		return fmt.Errorf("tenant is required")
	}
	return tx.Create(tenant).Error
}

// Update saves the provided tenant.
func (r *Repository) Update(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return fmt.Errorf("tenant is required")
	}
	return r.db.WithContext(ctx).Save(tenant).Error
}

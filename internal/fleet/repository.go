package fleet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// Repository handles fleet and vehicle persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to fleet operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new fleet.
func (r *Repository) Create(ctx context.Context, fleet *models.Fleet) error {
	if fleet == nil {
		return fmt.Errorf("fleet is required")
	}
	return r.db.WithContext(ctx).Create(fleet).Error
}

// FindForTenant loads a fleet with vehicles and sensors, scoped to the tenant.
func (r *Repository) FindForTenant(ctx context.Context, tenantID, fleetID uuid.UUID) (*models.Fleet, error) {
	var fleet models.Fleet
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, fleetID).
		Preload("Vehicles").
		Preload("Vehicles.Sensors").
		First(&fleet).Error
	if err != nil {
		return nil, err
	}
	return &fleet, nil
}

// List returns a page of the tenant's fleets, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, page pagination.Params) ([]models.Fleet, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Fleet{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var rows []models.Fleet
	err = r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Preload("Vehicles").
		Preload("Vehicles.Sensors").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update persists mutated fleet fields.
func (r *Repository) Update(ctx context.Context, fleet *models.Fleet) error {
	if fleet == nil {
		return fmt.Errorf("fleet is required")
	}
	return r.db.WithContext(ctx).Save(fleet).Error
}

// CreateVehicle adds a vehicle to a fleet.
func (r *Repository) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle == nil {
		return fmt.Errorf("vehicle is required")
	}
	return r.db.WithContext(ctx).Create(vehicle).Error
}

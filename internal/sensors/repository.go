package sensors

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles sensor persistence. Tenant scoping goes through the
// vehicle's fleet.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sensor operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) tenantScoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Joins("JOIN vehicles ON vehicles.id = tire_sensors.vehicle_id").
		Joins("JOIN fleets ON fleets.id = vehicles.fleet_id").
		Where("fleets.tenant_id = ?", tenantID)
}

// FindVehicleForTenant checks the vehicle belongs to one of the tenant's
// fleets.
func (r *Repository) FindVehicleForTenant(ctx context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Joins("JOIN fleets ON fleets.id = vehicles.fleet_id").
		Where("vehicles.id = ? AND fleets.tenant_id = ?", vehicleID, tenantID).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByPhysicalID loads a sensor by its device-facing id.
func (r *Repository) FindByPhysicalID(ctx context.Context, sensorID string) (*models.TireSensor, error) {
	var sensor models.TireSensor
	err := r.db.WithContext(ctx).
		Where("sensor_id = ?", sensorID).
		First(&sensor).Error
	if err != nil {
		return nil, err
	}
	return &sensor, nil
}

// FindForTenant loads a sensor row scoped to the tenant.
func (r *Repository) FindForTenant(ctx context.Context, tenantID, id uuid.UUID) (*models.TireSensor, error) {
	var sensor models.TireSensor
	err := r.tenantScoped(ctx, tenantID).
		Where("tire_sensors.id = ?", id).
		First(&sensor).Error
	if err != nil {
		return nil, err
	}
	return &sensor, nil
}

// PositionOccupied reports whether an active sensor already sits at the
// (vehicle, position) slot.
func (r *Repository) PositionOccupied(ctx context.Context, vehicleID uuid.UUID, position string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Where("vehicle_id = ? AND position = ? AND is_active", vehicleID, position).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a new sensor.
func (r *Repository) Create(ctx context.Context, sensor *models.TireSensor) error {
	if sensor == nil {
		return fmt.Errorf("sensor is required")
	}
	return r.db.WithContext(ctx).Create(sensor).Error
}

// UpdateReadings writes the latest measurement onto the sensor row.
func (r *Repository) UpdateReadings(ctx context.Context, sensorID string, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Where("sensor_id = ?", sensorID).
		Updates(updates).Error
}

// AssignTire links a sensor to a tire.
func (r *Repository) AssignTire(ctx context.Context, id, tireID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Where("id = ?", id).
		Update("tire_id", tireID).Error
}

// Deactivate switches a sensor off.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// List returns a page of the tenant's sensors, most recently reporting first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, q ListSensorsQuery) ([]models.TireSensor, int64, error) {
	build := func() *gorm.DB {
		qb := r.tenantScoped(ctx, tenantID)
		if q.VehicleID != nil {
			qb = qb.Where("tire_sensors.vehicle_id = ?", *q.VehicleID)
		}
		if q.FleetID != nil {
			qb = qb.Where("vehicles.fleet_id = ?", *q.FleetID)
		}
		if q.IsActive != nil {
			qb = qb.Where("tire_sensors.is_active = ?", *q.IsActive)
		}
		if q.Position != nil {
			qb = qb.Where("tire_sensors.position = ?", *q.Position)
		}
		return qb
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.TireSensor
	err := build().
		Order("tire_sensors.last_reading DESC NULLS LAST").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActive returns the tenant's active sensors for alert derivation.
func (r *Repository) ListActive(ctx context.Context, tenantID uuid.UUID, vehicleID, fleetID *uuid.UUID) ([]models.TireSensor, error) {
	qb := r.tenantScoped(ctx, tenantID).Where("tire_sensors.is_active")
	if vehicleID != nil {
		qb = qb.Where("tire_sensors.vehicle_id = ?", *vehicleID)
	}
	if fleetID != nil {
		qb = qb.Where("vehicles.fleet_id = ?", *fleetID)
	}

	var rows []models.TireSensor
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeactivateSilentBefore switches off active sensors whose last reading is
// older than the cutoff, or that never reported and were created before it.
// Returns the number of sensors deactivated.
func (r *Repository) DeactivateSilentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.TireSensor{}).
		Where("is_active").
		Where("(last_reading IS NOT NULL AND last_reading < ?) OR (last_reading IS NULL AND created_at < ?)", cutoff, cutoff).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Fleet is a B2B customer operating a set of vehicles under one tenant.
type Fleet struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name     string          `gorm:"column:name;not null"`
	Type     enums.FleetType `gorm:"column:type;type:fleet_type;not null"`

	ManagerName  *string `gorm:"column:manager_name"`
	ManagerEmail *string `gorm:"column:manager_email"`
	ManagerPhone *string `gorm:"column:manager_phone"`

	ContractStart *time.Time `gorm:"column:contract_start"`
	ContractEnd   *time.Time `gorm:"column:contract_end"`

	Vehicles  []Vehicle `gorm:"foreignKey:FleetID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Vehicle belongs to a fleet and carries the sensors.
type Vehicle struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FleetID      uuid.UUID `gorm:"column:fleet_id;type:uuid;not null;index"`
	Make         string    `gorm:"column:make;not null"`
	Model        string    `gorm:"column:model;not null"`
	Year         int       `gorm:"column:year;not null"`
	VIN          *string   `gorm:"column:vin;uniqueIndex"`
	LicensePlate string    `gorm:"column:license_plate;not null"`

	Type          enums.VehicleType `gorm:"column:type;type:vehicle_type;not null"`
	FrontTireSize *string           `gorm:"column:front_tire_size"`
	RearTireSize  *string           `gorm:"column:rear_tire_size"`
	TireCount     int               `gorm:"column:tire_count;not null;default:4"`
	CurrentKM     int               `gorm:"column:current_km;not null;default:0"`

	Sensors   []TireSensor `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

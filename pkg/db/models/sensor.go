package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// TireSensor is a physical TPMS unit mounted on one wheel position. At most
// one active sensor may exist per (vehicle, position).
type TireSensor struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SensorID  string               `gorm:"column:sensor_id;not null;uniqueIndex"`
	VehicleID uuid.UUID            `gorm:"column:vehicle_id;type:uuid;not null;index"`
	Position  enums.SensorPosition `gorm:"column:position;type:sensor_position;not null"`
	TireID    *uuid.UUID           `gorm:"column:tire_id;type:uuid"`

	Pressure     *float64   `gorm:"column:pressure;type:numeric(5,2)"`
	Temperature  *float64   `gorm:"column:temperature;type:numeric(5,2)"`
	BatteryLevel *float64   `gorm:"column:battery_level;type:numeric(5,2)"`
	LastReading  *time.Time `gorm:"column:last_reading"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

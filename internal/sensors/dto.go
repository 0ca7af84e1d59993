package sensors

import (
	"time"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// RegisterSensorInput binds a physical TPMS unit to a wheel position.
type RegisterSensorInput struct {
	SensorID  string     `json:"sensor_id" validate:"required"`
	VehicleID uuid.UUID  `json:"vehicle_id" validate:"required"`
	Position  string     `json:"position" validate:"required"`
	TireID    *uuid.UUID `json:"tire_id,omitempty"`
}

// ReadingInput is the device-facing payload for one measurement.
type ReadingInput struct {
	SensorID     string   `json:"sensor_id" validate:"required"`
	Pressure     *float64 `json:"pressure,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
}

// SensorDTO is the API shape of a sensor.
type SensorDTO struct {
	ID           uuid.UUID            `json:"id"`
	SensorID     string               `json:"sensor_id"`
	VehicleID    uuid.UUID            `json:"vehicle_id"`
	Position     enums.SensorPosition `json:"position"`
	TireID       *uuid.UUID           `json:"tire_id,omitempty"`
	Pressure     *float64             `json:"pressure,omitempty"`
	Temperature  *float64             `json:"temperature,omitempty"`
	BatteryLevel *float64             `json:"battery_level,omitempty"`
	LastReading  *time.Time           `json:"last_reading,omitempty"`
	IsActive     bool                 `json:"is_active"`
}

// ListSensorsQuery filters a tenant's sensor listing.
type ListSensorsQuery struct {
	VehicleID *uuid.UUID
	FleetID   *uuid.UUID
	IsActive  *bool
	Position  *enums.SensorPosition
	Page      pagination.Params
}

// SensorPage is one page of sensors.
type SensorPage struct {
	Items []SensorDTO     `json:"items"`
	Page  pagination.Page `json:"pagination"`
}

// Alert is derived from a sensor's latest readings; alerts are not stored.
type Alert struct {
	ID        string              `json:"id"`
	SensorID  uuid.UUID           `json:"sensor_id"`
	VehicleID uuid.UUID           `json:"vehicle_id"`
	Type      enums.AlertType     `json:"type"`
	Severity  enums.AlertSeverity `json:"severity"`
	Message   string              `json:"message"`
	Value     *float64            `json:"value,omitempty"`
	Threshold *float64            `json:"threshold,omitempty"`
	Timestamp *time.Time          `json:"timestamp,omitempty"`
}

// AlertQuery scopes alert derivation.
type AlertQuery struct {
	VehicleID *uuid.UUID
	FleetID   *uuid.UUID
	Severity  *enums.AlertSeverity
}

// AlertSummary counts alerts by severity.
type AlertSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// AlertReport is the alert listing plus its summary.
type AlertReport struct {
	Alerts  []Alert      `json:"alerts"`
	Summary AlertSummary `json:"summary"`
}

// SensorAnalytics aggregates the tenant's sensor estate.
type SensorAnalytics struct {
	TotalSensors    int     `json:"total_sensors"`
	ActiveSensors   int     `json:"active_sensors"`
	RecentSensors   int     `json:"sensors_with_recent_data"`
	OfflineSensors  int     `json:"offline_sensors"`
	AvgPressure     float64 `json:"avg_pressure"`
	AvgTemperature  float64 `json:"avg_temperature"`
	AvgBatteryLevel float64 `json:"avg_battery_level"`
}

// ReadingResult returns the updated sensor plus any alerts the new values
// tripped.
type ReadingResult struct {
	Sensor SensorDTO `json:"sensor"`
	Alerts []Alert   `json:"alerts"`
}

func toDTO(s models.TireSensor) SensorDTO {
	return SensorDTO{
		ID:           s.ID,
		SensorID:     s.SensorID,
		VehicleID:    s.VehicleID,
		Position:     s.Position,
		TireID:       s.TireID,
		Pressure:     s.Pressure,
		Temperature:  s.Temperature,
		BatteryLevel: s.BatteryLevel,
		LastReading:  s.LastReading,
		IsActive:     s.IsActive,
	}
}

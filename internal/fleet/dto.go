package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// CreateFleetInput registers a B2B fleet customer.
type CreateFleetInput struct {
	Name          string     `json:"name" validate:"required,max=100"`
	Type          string     `json:"type" validate:"required"`
	ManagerName   *string    `json:"manager_name,omitempty"`
	ManagerEmail  *string    `json:"manager_email,omitempty" validate:"omitempty,email"`
	ManagerPhone  *string    `json:"manager_phone,omitempty"`
	ContractStart *time.Time `json:"contract_start,omitempty"`
	ContractEnd   *time.Time `json:"contract_end,omitempty"`
}

// UpdateFleetInput mutates contact and contract fields.
type UpdateFleetInput struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	ManagerName   *string    `json:"manager_name,omitempty"`
	ManagerEmail  *string    `json:"manager_email,omitempty" validate:"omitempty,email"`
	ManagerPhone  *string    `json:"manager_phone,omitempty"`
	ContractStart *time.Time `json:"contract_start,omitempty"`
	ContractEnd   *time.Time `json:"contract_end,omitempty"`
}

// AddVehicleInput puts a vehicle into a fleet.
type AddVehicleInput struct {
	Make          string  `json:"make" validate:"required"`
	Model         string  `json:"model" validate:"required"`
	Year          int     `json:"year" validate:"required"`
	VIN           *string `json:"vin,omitempty"`
	LicensePlate  string  `json:"license_plate" validate:"required"`
	Type          string  `json:"type" validate:"required"`
	FrontTireSize *string `json:"front_tire_size,omitempty"`
	RearTireSize  *string `json:"rear_tire_size,omitempty"`
	TireCount     int     `json:"tire_count"`
	CurrentKM     int     `json:"current_km" validate:"gte=0"`
}

// VehicleDTO is the API shape of a fleet vehicle.
type VehicleDTO struct {
	ID            uuid.UUID         `json:"id"`
	FleetID       uuid.UUID         `json:"fleet_id"`
	Make          string            `json:"make"`
	Model         string            `json:"model"`
	Year          int               `json:"year"`
	VIN           *string           `json:"vin,omitempty"`
	LicensePlate  string            `json:"license_plate"`
	Type          enums.VehicleType `json:"type"`
	FrontTireSize *string           `json:"front_tire_size,omitempty"`
	RearTireSize  *string           `json:"rear_tire_size,omitempty"`
	TireCount     int               `json:"tire_count"`
	CurrentKM     int               `json:"current_km"`
	SensorCount   int               `json:"sensor_count"`
}

// FleetDTO is the API shape of a fleet with its vehicles.
type FleetDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Type          enums.FleetType `json:"type"`
	ManagerName   *string         `json:"manager_name,omitempty"`
	ManagerEmail  *string         `json:"manager_email,omitempty"`
	ManagerPhone  *string         `json:"manager_phone,omitempty"`
	ContractStart *time.Time      `json:"contract_start,omitempty"`
	ContractEnd   *time.Time      `json:"contract_end,omitempty"`
	Vehicles      []VehicleDTO    `json:"vehicles,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FleetPage is one page of a tenant's fleets.
type FleetPage struct {
	Items []FleetDTO      `json:"items"`
	Page  pagination.Page `json:"pagination"`
}

// FleetAnalytics summarizes the sensor picture across a fleet.
type FleetAnalytics struct {
	FleetID           uuid.UUID `json:"fleet_id"`
	TotalVehicles     int       `json:"total_vehicles"`
	ActiveSensors     int       `json:"active_sensors"`
	LowPressureAlerts int       `json:"low_pressure_alerts"`
	AvgPressure       float64   `json:"avg_pressure"`
}

func toVehicleDTO(v models.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:            v.ID,
		FleetID:       v.FleetID,
		Make:          v.Make,
		Model:         v.Model,
		Year:          v.Year,
		VIN:           v.VIN,
		LicensePlate:  v.LicensePlate,
		Type:          v.Type,
		FrontTireSize: v.FrontTireSize,
		RearTireSize:  v.RearTireSize,
		TireCount:     v.TireCount,
		CurrentKM:     v.CurrentKM,
		SensorCount:   len(v.Sensors),
	}
}

func toFleetDTO(f models.Fleet) FleetDTO {
	dto := FleetDTO{
		ID:            f.ID,
		Name:          f.Name,
		Type:          f.Type,
		ManagerName:   f.ManagerName,
		ManagerEmail:  f.ManagerEmail,
		ManagerPhone:  f.ManagerPhone,
		ContractStart: f.ContractStart,
		ContractEnd:   f.ContractEnd,
		CreatedAt:     f.CreatedAt,
	}
	for _, v := range f.Vehicles {
		dto.Vehicles = append(dto.Vehicles, toVehicleDTO(v))
	}
	return dto
}

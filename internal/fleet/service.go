package fleet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

const (
	minVehicleYear = 1900
	minTireCount   = 2
	maxTireCount   = 18
	defaultTires   = 4

	lowPressureBar = 6.0
)

type fleetRepository interface {
	Create(ctx context.Context, fleet *models.Fleet) error
	FindForTenant(ctx context.Context, tenantID, fleetID uuid.UUID) (*models.Fleet, error)
	List(ctx context.Context, tenantID uuid.UUID, page pagination.Params) ([]models.Fleet, int64, error)
	Update(ctx context.Context, fleet *models.Fleet) error
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

// Service manages B2B fleet customers and their vehicles.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateFleetInput) (*FleetDTO, error)
	Get(ctx context.Context, tenantID, fleetID uuid.UUID) (*FleetDTO, error)
	List(ctx context.Context, tenantID uuid.UUID, page pagination.Params) (*FleetPage, error)
	Update(ctx context.Context, tenantID, fleetID uuid.UUID, input UpdateFleetInput) (*FleetDTO, error)
	AddVehicle(ctx context.Context, tenantID, fleetID uuid.UUID, input AddVehicleInput) (*VehicleDTO, error)
	Analytics(ctx context.Context, tenantID, fleetID uuid.UUID) (*FleetAnalytics, error)
}

type service struct {
	repo fleetRepository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the fleet service.
func NewService(repo fleetRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fleet repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Create registers a fleet for the tenant.
func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateFleetInput) (*FleetDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet name must be 1 to 100 characters")
	}
	fleetType, err := enums.ParseFleetType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown fleet type").
			WithDetails(map[string]string{"type": input.Type})
	}
	if input.ContractStart != nil && input.ContractEnd != nil && input.ContractEnd.Before(*input.ContractStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract end precedes contract start")
	}

	fleet := &models.Fleet{
		TenantID:      tenantID,
		Name:          name,
		Type:          fleetType,
		ManagerName:   input.ManagerName,
		ManagerEmail:  input.ManagerEmail,
		ManagerPhone:  input.ManagerPhone,
		ContractStart: input.ContractStart,
		ContractEnd:   input.ContractEnd,
	}
	if err := s.repo.Create(ctx, fleet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fleet")
	}

	dto := toFleetDTO(*fleet)
	return &dto, nil
}

// Get loads one fleet with its vehicles.
func (s *service) Get(ctx context.Context, tenantID, fleetID uuid.UUID) (*FleetDTO, error) {
	fleet, err := s.loadFleet(ctx, tenantID, fleetID)
	if err != nil {
		return nil, err
	}
	dto := toFleetDTO(*fleet)
	return &dto, nil
}

// List returns a page of the tenant's fleets.
func (s *service) List(ctx context.Context, tenantID uuid.UUID, page pagination.Params) (*FleetPage, error) {
	rows, total, err := s.repo.List(ctx, tenantID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fleets")
	}
	out := &FleetPage{
		Items: make([]FleetDTO, 0, len(rows)),
		Page:  pagination.NewPage(page, total),
	}
	for _, f := range rows {
		out.Items = append(out.Items, toFleetDTO(f))
	}
	return out, nil
}

// Update mutates fleet contact and contract fields.
func (s *service) Update(ctx context.Context, tenantID, fleetID uuid.UUID, input UpdateFleetInput) (*FleetDTO, error) {
	fleet, err := s.loadFleet(ctx, tenantID, fleetID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet name must be 1 to 100 characters")
		}
		fleet.Name = name
	}
	if input.ManagerName != nil {
		fleet.ManagerName = input.ManagerName
	}
	if input.ManagerEmail != nil {
		fleet.ManagerEmail = input.ManagerEmail
	}
	if input.ManagerPhone != nil {
		fleet.ManagerPhone = input.ManagerPhone
	}
	if input.ContractStart != nil {
		fleet.ContractStart = input.ContractStart
	}
	if input.ContractEnd != nil {
		fleet.ContractEnd = input.ContractEnd
	}
	if fleet.ContractStart != nil && fleet.ContractEnd != nil && fleet.ContractEnd.Before(*fleet.ContractStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contract end precedes contract start")
	}

	if err := s.repo.Update(ctx, fleet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fleet")
	}
	dto := toFleetDTO(*fleet)
	return &dto, nil
}

// AddVehicle puts a vehicle into the fleet after ownership and bounds checks.
func (s *service) AddVehicle(ctx context.Context, tenantID, fleetID uuid.UUID, input AddVehicleInput) (*VehicleDTO, error) {
	if strings.TrimSpace(input.Make) == "" || strings.TrimSpace(input.Model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle make and model are required")
	}
	if strings.TrimSpace(input.LicensePlate) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license plate is required")
	}
	maxYear := s.now().Year() + 1
	if input.Year < minVehicleYear || input.Year > maxYear {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("vehicle year must be between %d and %d", minVehicleYear, maxYear))
	}
	vehicleType, err := enums.ParseVehicleType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle type").
			WithDetails(map[string]string{"type": input.Type})
	}
	tireCount := input.TireCount
	if tireCount == 0 {
		tireCount = defaultTires
	}
	if tireCount < minTireCount || tireCount > maxTireCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("tire count must be between %d and %d", minTireCount, maxTireCount))
	}
	if input.CurrentKM < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current km must not be negative")
	}

	if _, err := s.loadFleet(ctx, tenantID, fleetID); err != nil {
		return nil, err
	}

	vehicle := &models.Vehicle{
		FleetID:       fleetID,
		Make:          strings.TrimSpace(input.Make),
		Model:         strings.TrimSpace(input.Model),
		Year:          input.Year,
		VIN:           input.VIN,
		LicensePlate:  strings.TrimSpace(input.LicensePlate),
		Type:          vehicleType,
		FrontTireSize: input.FrontTireSize,
		RearTireSize:  input.RearTireSize,
		TireCount:     tireCount,
		CurrentKM:     input.CurrentKM,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "vehicle vin already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vehicle")
	}

	dto := toVehicleDTO(*vehicle)
	return &dto, nil
}

// Analytics aggregates the current sensor picture for one fleet. Pressure is
// averaged per vehicle first so a heavily-instrumented truck does not drown
// out the rest.
func (s *service) Analytics(ctx context.Context, tenantID, fleetID uuid.UUID) (*FleetAnalytics, error) {
	fleet, err := s.loadFleet(ctx, tenantID, fleetID)
	if err != nil {
		return nil, err
	}

	analytics := &FleetAnalytics{
		FleetID:       fleet.ID,
		TotalVehicles: len(fleet.Vehicles),
	}
	sumVehicleAvg := 0.0
	for _, vehicle := range fleet.Vehicles {
		vehicleSum, vehicleReadings := 0.0, 0
		for _, sensor := range vehicle.Sensors {
			if sensor.IsActive {
				analytics.ActiveSensors++
			}
			if sensor.Pressure == nil {
				continue
			}
			if *sensor.Pressure < lowPressureBar {
				analytics.LowPressureAlerts++
			}
			vehicleSum += *sensor.Pressure
			vehicleReadings++
		}
		if vehicleReadings > 0 {
			sumVehicleAvg += vehicleSum / float64(vehicleReadings)
		}
	}
	if analytics.TotalVehicles > 0 {
		analytics.AvgPressure = math.Round(sumVehicleAvg/float64(analytics.TotalVehicles)*100) / 100
	}
	return analytics, nil
}

func (s *service) loadFleet(ctx context.Context, tenantID, fleetID uuid.UUID) (*models.Fleet, error) {
	fleet, err := s.repo.FindForTenant(ctx, tenantID, fleetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fleet")
	}
	return fleet, nil
}

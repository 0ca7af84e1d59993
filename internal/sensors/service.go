package sensors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// Reading bounds for the device-facing ingest endpoint.
const (
	maxPressureBar = 15.0
	minTempC       = -50.0
	maxTempC       = 150.0
)

type sensorRepository interface {
	FindVehicleForTenant(ctx context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error)
	FindByPhysicalID(ctx context.Context, sensorID string) (*models.TireSensor, error)
	FindForTenant(ctx context.Context, tenantID, id uuid.UUID) (*models.TireSensor, error)
	PositionOccupied(ctx context.Context, vehicleID uuid.UUID, position string) (bool, error)
	Create(ctx context.Context, sensor *models.TireSensor) error
	UpdateReadings(ctx context.Context, sensorID string, updates map[string]any) error
	AssignTire(ctx context.Context, id, tireID uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, q ListSensorsQuery) ([]models.TireSensor, int64, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, vehicleID, fleetID *uuid.UUID) ([]models.TireSensor, error)
	DeactivateSilentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages TPMS sensors: registration, device readings, derived
// alerts and fleet-level aggregates.
type Service interface {
	Register(ctx context.Context, tenantID uuid.UUID, input RegisterSensorInput) (*SensorDTO, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*SensorDTO, error)
	List(ctx context.Context, tenantID uuid.UUID, q ListSensorsQuery) (*SensorPage, error)
	IngestReading(ctx context.Context, input ReadingInput) (*ReadingResult, error)
	Alerts(ctx context.Context, tenantID uuid.UUID, q AlertQuery) (*AlertReport, error)
	Analytics(ctx context.Context, tenantID uuid.UUID, vehicleID, fleetID *uuid.UUID) (*SensorAnalytics, error)
	AssignTire(ctx context.Context, tenantID, id, tireID uuid.UUID) (*SensorDTO, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
	DeactivateSilent(ctx context.Context) (int64, error)
}

type service struct {
	repo   sensorRepository
	tx     txRunner
	events eventEmitter
	cfg    config.SensorConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the sensor service.
func NewService(repo sensorRepository, tx txRunner, events eventEmitter, cfg config.SensorConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sensor repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tx: tx, events: events, cfg: cfg, logg: logg, now: time.Now}, nil
}

// Register binds a physical sensor to a wheel position. Both the physical id
// and the (vehicle, position) slot must be free.
func (s *service) Register(ctx context.Context, tenantID uuid.UUID, input RegisterSensorInput) (*SensorDTO, error) {
	physicalID := strings.TrimSpace(input.SensorID)
	if physicalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sensor id is required")
	}
	position, err := enums.ParseSensorPosition(input.Position)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sensor position").
			WithDetails(map[string]string{"position": input.Position})
	}

	if _, err := s.repo.FindVehicleForTenant(ctx, tenantID, input.VehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}

	if _, err := s.repo.FindByPhysicalID(ctx, physicalID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sensor id already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up sensor")
	}

	occupied, err := s.repo.PositionOccupied(ctx, input.VehicleID, string(position))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check position")
	}
	if occupied {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "position already occupied by an active sensor").
			WithDetails(map[string]string{"position": string(position)})
	}

	sensor := &models.TireSensor{
		SensorID:  physicalID,
		VehicleID: input.VehicleID,
		Position:  position,
		TireID:    input.TireID,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, sensor); err != nil {
		// The partial unique index closes the race the pre-checks leave open.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sensor id or position already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sensor")
	}

	dto := toDTO(*sensor)
	return &dto, nil
}

// Get loads one sensor, tenant scoped.
func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*SensorDTO, error) {
	sensor, err := s.loadSensor(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*sensor)
	return &dto, nil
}

// List returns a page of the tenant's sensors.
func (s *service) List(ctx context.Context, tenantID uuid.UUID, q ListSensorsQuery) (*SensorPage, error) {
	if q.Position != nil && !q.Position.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sensor position")
	}
	rows, total, err := s.repo.List(ctx, tenantID, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sensors")
	}
	page := &SensorPage{
		Items: make([]SensorDTO, 0, len(rows)),
		Page:  pagination.NewPage(q.Page, total),
	}
	for _, row := range rows {
		page.Items = append(page.Items, toDTO(row))
	}
	return page, nil
}

// IngestReading is the device-facing write path. It is keyed by physical
// sensor id, validates measurement bounds and records a sensor.reading event.
func (s *service) IngestReading(ctx context.Context, input ReadingInput) (*ReadingResult, error) {
	physicalID := strings.TrimSpace(input.SensorID)
	if physicalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sensor id is required")
	}
	if input.Pressure == nil && input.Temperature == nil && input.BatteryLevel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reading carries no measurements")
	}
	if input.Pressure != nil && (*input.Pressure < 0 || *input.Pressure > maxPressureBar) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pressure out of range")
	}
	if input.Temperature != nil && (*input.Temperature < minTempC || *input.Temperature > maxTempC) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "temperature out of range")
	}
	if input.BatteryLevel != nil && (*input.BatteryLevel < 0 || *input.BatteryLevel > 100) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "battery level out of range")
	}

	sensor, err := s.repo.FindByPhysicalID(ctx, physicalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sensor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sensor")
	}

	recordedAt := s.now().UTC()
	updates := map[string]any{"last_reading": recordedAt}
	if input.Pressure != nil {
		updates["pressure"] = *input.Pressure
		sensor.Pressure = input.Pressure
	}
	if input.Temperature != nil {
		updates["temperature"] = *input.Temperature
		sensor.Temperature = input.Temperature
	}
	if input.BatteryLevel != nil {
		updates["battery_level"] = *input.BatteryLevel
		sensor.BatteryLevel = input.BatteryLevel
	}
	sensor.LastReading = &recordedAt

	if err := s.repo.UpdateReadings(ctx, physicalID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reading")
	}

	alerts := deriveAlerts(*sensor, recordedAt, s.cfg.OfflineAfter)

	// The reading is already stored; a failed event write must not bounce
	// the device.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSensorReadingRecorded,
			AggregateType: enums.AggregateSensor,
			AggregateID:   sensor.ID,
			Version:       1,
			Data: payloads.SensorReadingRecordedEvent{
				SensorID:     sensor.SensorID,
				VehicleID:    sensor.VehicleID,
				Pressure:     sensor.Pressure,
				Temperature:  sensor.Temperature,
				BatteryLevel: sensor.BatteryLevel,
				AlertCount:   len(alerts),
				RecordedAt:   recordedAt,
			},
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "sensor reading event not recorded", err)
	}

	return &ReadingResult{Sensor: toDTO(*sensor), Alerts: alerts}, nil
}

// Alerts derives the current alert picture from the latest readings.
func (s *service) Alerts(ctx context.Context, tenantID uuid.UUID, q AlertQuery) (*AlertReport, error) {
	rows, err := s.repo.ListActive(ctx, tenantID, q.VehicleID, q.FleetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sensors")
	}

	now := s.now().UTC()
	alerts := make([]Alert, 0)
	for _, sensor := range rows {
		for _, alert := range deriveAlerts(sensor, now, s.cfg.OfflineAfter) {
			if q.Severity != nil && alert.Severity != *q.Severity {
				continue
			}
			alerts = append(alerts, alert)
		}
	}
	return &AlertReport{Alerts: alerts, Summary: summarize(alerts)}, nil
}

// Analytics aggregates the tenant's active sensor estate.
func (s *service) Analytics(ctx context.Context, tenantID uuid.UUID, vehicleID, fleetID *uuid.UUID) (*SensorAnalytics, error) {
	rows, err := s.repo.ListActive(ctx, tenantID, vehicleID, fleetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sensors")
	}

	analytics := &SensorAnalytics{TotalSensors: len(rows)}
	if len(rows) == 0 {
		return analytics, nil
	}

	recentCutoff := s.now().UTC().Add(-s.cfg.OfflineAfter)
	sumPressure, sumTemp, sumBattery := 0.0, 0.0, 0.0
	for _, sensor := range rows {
		if sensor.IsActive {
			analytics.ActiveSensors++
		}
		if sensor.LastReading != nil && sensor.LastReading.After(recentCutoff) {
			analytics.RecentSensors++
		}
		if sensor.Pressure != nil {
			sumPressure += *sensor.Pressure
		}
		if sensor.Temperature != nil {
			sumTemp += *sensor.Temperature
		}
		if sensor.BatteryLevel != nil {
			sumBattery += *sensor.BatteryLevel
		}
	}
	analytics.OfflineSensors = analytics.TotalSensors - analytics.RecentSensors
	total := float64(analytics.TotalSensors)
	analytics.AvgPressure = round2(sumPressure / total)
	analytics.AvgTemperature = round2(sumTemp / total)
	analytics.AvgBatteryLevel = round2(sumBattery / total)
	return analytics, nil
}

// AssignTire links the sensor to the tire it sits on.
func (s *service) AssignTire(ctx context.Context, tenantID, id, tireID uuid.UUID) (*SensorDTO, error) {
	sensor, err := s.loadSensor(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignTire(ctx, sensor.ID, tireID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign tire")
	}
	sensor.TireID = &tireID
	dto := toDTO(*sensor)
	return &dto, nil
}

// Deactivate switches a sensor off, freeing its position slot.
func (s *service) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	sensor, err := s.loadSensor(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, sensor.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate sensor")
	}
	return nil
}

// DeactivateSilent retires sensors that have been silent past the configured
// window. Called by the cron worker.
func (s *service) DeactivateSilent(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.DeactivateSilent)
	count, err := s.repo.DeactivateSilentBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate silent sensors")
	}
	return count, nil
}

func (s *service) loadSensor(ctx context.Context, tenantID, id uuid.UUID) (*models.TireSensor, error) {
	sensor, err := s.repo.FindForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sensor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sensor")
	}
	return sensor, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

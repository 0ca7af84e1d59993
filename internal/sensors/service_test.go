package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
)

func errCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func fptr(v float64) *float64 { return &v }

type fakeSensorRepo struct {
	vehicles map[uuid.UUID]uuid.UUID // vehicle -> tenant
	sensors  map[string]*models.TireSensor
}

func newFakeSensorRepo() *fakeSensorRepo {
	return &fakeSensorRepo{
		vehicles: map[uuid.UUID]uuid.UUID{},
		sensors:  map[string]*models.TireSensor{},
	}
}

func (f *fakeSensorRepo) FindVehicleForTenant(_ context.Context, tenantID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	if owner, ok := f.vehicles[vehicleID]; ok && owner == tenantID {
		return &models.Vehicle{ID: vehicleID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSensorRepo) FindByPhysicalID(_ context.Context, sensorID string) (*models.TireSensor, error) {
	if sensor, ok := f.sensors[sensorID]; ok {
		copied := *sensor
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSensorRepo) FindForTenant(_ context.Context, tenantID, id uuid.UUID) (*models.TireSensor, error) {
	for _, sensor := range f.sensors {
		if sensor.ID == id && f.vehicles[sensor.VehicleID] == tenantID {
			copied := *sensor
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSensorRepo) PositionOccupied(_ context.Context, vehicleID uuid.UUID, position string) (bool, error) {
	for _, sensor := range f.sensors {
		if sensor.VehicleID == vehicleID && string(sensor.Position) == position && sensor.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSensorRepo) Create(_ context.Context, sensor *models.TireSensor) error {
	sensor.ID = uuid.New()
	f.sensors[sensor.SensorID] = sensor
	return nil
}

func (f *fakeSensorRepo) UpdateReadings(_ context.Context, sensorID string, updates map[string]any) error {
	sensor, ok := f.sensors[sensorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["pressure"].(float64); ok {
		sensor.Pressure = &v
	}
	if v, ok := updates["temperature"].(float64); ok {
		sensor.Temperature = &v
	}
	if v, ok := updates["battery_level"].(float64); ok {
		sensor.BatteryLevel = &v
	}
	if v, ok := updates["last_reading"].(time.Time); ok {
		sensor.LastReading = &v
	}
	return nil
}

func (f *fakeSensorRepo) AssignTire(_ context.Context, id, tireID uuid.UUID) error {
	for _, sensor := range f.sensors {
		if sensor.ID == id {
			sensor.TireID = &tireID
		}
	}
	return nil
}

func (f *fakeSensorRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	for _, sensor := range f.sensors {
		if sensor.ID == id {
			sensor.IsActive = false
		}
	}
	return nil
}

func (f *fakeSensorRepo) List(_ context.Context, tenantID uuid.UUID, q ListSensorsQuery) ([]models.TireSensor, int64, error) {
	var rows []models.TireSensor
	for _, sensor := range f.sensors {
		if f.vehicles[sensor.VehicleID] != tenantID {
			continue
		}
		if q.IsActive != nil && sensor.IsActive != *q.IsActive {
			continue
		}
		rows = append(rows, *sensor)
	}
	return rows, int64(len(rows)), nil
}

func (f *fakeSensorRepo) ListActive(_ context.Context, tenantID uuid.UUID, vehicleID, _ *uuid.UUID) ([]models.TireSensor, error) {
	var rows []models.TireSensor
	for _, sensor := range f.sensors {
		if !sensor.IsActive || f.vehicles[sensor.VehicleID] != tenantID {
			continue
		}
		if vehicleID != nil && sensor.VehicleID != *vehicleID {
			continue
		}
		rows = append(rows, *sensor)
	}
	return rows, nil
}

func (f *fakeSensorRepo) DeactivateSilentBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for _, sensor := range f.sensors {
		if !sensor.IsActive {
			continue
		}
		silent := sensor.LastReading == nil || sensor.LastReading.Before(cutoff)
		if silent {
			sensor.IsActive = false
			count++
		}
	}
	return count, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

var testSensorConfig = config.SensorConfig{
	OfflineAfter:     time.Hour,
	DeactivateSilent: 720 * time.Hour,
}

func sensorFixture(t *testing.T) (*fakeSensorRepo, *fakeEmitter, *service, uuid.UUID, uuid.UUID) {
	t.Helper()
	repo := newFakeSensorRepo()
	emitter := &fakeEmitter{}
	tenantID := uuid.New()
	vehicleID := uuid.New()
	repo.vehicles[vehicleID] = tenantID

	svc, err := NewService(repo, fakeTx{}, emitter, testSensorConfig, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return repo, emitter, svc.(*service), tenantID, vehicleID
}

func TestRegisterSensor(t *testing.T) {
	_, _, svc, tenantID, vehicleID := sensorFixture(t)

	dto, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID:  "TPMS-001",
		VehicleID: vehicleID,
		Position:  "FRONT_LEFT",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Position != enums.SensorPositionFrontLeft || !dto.IsActive {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestRegisterConflicts(t *testing.T) {
	repo, _, svc, tenantID, vehicleID := sensorFixture(t)

	first := RegisterSensorInput{SensorID: "TPMS-010", VehicleID: vehicleID, Position: "FRONT_LEFT"}
	if _, err := svc.Register(context.Background(), tenantID, first); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// same physical id on another slot
	dup := first
	dup.Position = "REAR_LEFT"
	if _, err := svc.Register(context.Background(), tenantID, dup); errCode(err) != pkgerrors.CodeConflict {
		t.Fatal("duplicate physical id must be CONFLICT")
	}

	// same slot with a fresh id
	taken := RegisterSensorInput{SensorID: "TPMS-011", VehicleID: vehicleID, Position: "FRONT_LEFT"}
	if _, err := svc.Register(context.Background(), tenantID, taken); errCode(err) != pkgerrors.CodeConflict {
		t.Fatal("occupied position must be CONFLICT")
	}

	// deactivated sensors free their slot
	repo.sensors["TPMS-010"].IsActive = false
	if _, err := svc.Register(context.Background(), tenantID, taken); err != nil {
		t.Fatalf("freed position must accept a new sensor: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, _, svc, tenantID, vehicleID := sensorFixture(t)

	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: " ", VehicleID: vehicleID, Position: "FRONT_LEFT",
	}); errCode(err) != pkgerrors.CodeValidation {
		t.Fatal("blank sensor id must be VALIDATION")
	}
	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-X", VehicleID: vehicleID, Position: "MIDDLE",
	}); errCode(err) != pkgerrors.CodeValidation {
		t.Fatal("unknown position must be VALIDATION")
	}
	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-X", VehicleID: uuid.New(), Position: "FRONT_LEFT",
	}); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("unknown vehicle must be NOT_FOUND")
	}
	if _, err := svc.Register(context.Background(), uuid.New(), RegisterSensorInput{
		SensorID: "TPMS-X", VehicleID: vehicleID, Position: "FRONT_LEFT",
	}); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("foreign tenant vehicle must be NOT_FOUND")
	}
}

func TestIngestReadingStoresAndEmits(t *testing.T) {
	repo, emitter, svc, tenantID, vehicleID := sensorFixture(t)
	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-020", VehicleID: vehicleID, Position: "FRONT_RIGHT",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := svc.IngestReading(context.Background(), ReadingInput{
		SensorID:     "TPMS-020",
		Pressure:     fptr(8.2),
		Temperature:  fptr(45),
		BatteryLevel: fptr(90),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(result.Alerts) != 0 {
		t.Fatalf("healthy reading tripped alerts: %+v", result.Alerts)
	}

	stored := repo.sensors["TPMS-020"]
	if stored.Pressure == nil || *stored.Pressure != 8.2 || stored.LastReading == nil {
		t.Fatalf("reading not stored: %+v", stored)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventSensorReadingRecorded {
		t.Fatalf("reading event not emitted: %+v", emitter.events)
	}
}

func TestIngestReadingBounds(t *testing.T) {
	_, _, svc, tenantID, vehicleID := sensorFixture(t)
	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-021", VehicleID: vehicleID, Position: "REAR_RIGHT",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := map[string]ReadingInput{
		"pressure high": {SensorID: "TPMS-021", Pressure: fptr(15.1)},
		"pressure low":  {SensorID: "TPMS-021", Pressure: fptr(-0.1)},
		"temp high":     {SensorID: "TPMS-021", Temperature: fptr(151)},
		"temp low":      {SensorID: "TPMS-021", Temperature: fptr(-51)},
		"battery high":  {SensorID: "TPMS-021", BatteryLevel: fptr(101)},
		"empty":         {SensorID: "TPMS-021"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.IngestReading(context.Background(), input); errCode(err) != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want VALIDATION", errCode(err))
			}
		})
	}

	if _, err := svc.IngestReading(context.Background(), ReadingInput{
		SensorID: "TPMS-GHOST", Pressure: fptr(7),
	}); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("unknown physical id must be NOT_FOUND")
	}
}

func TestIngestReadingTripsAlerts(t *testing.T) {
	_, _, svc, tenantID, vehicleID := sensorFixture(t)
	if _, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-022", VehicleID: vehicleID, Position: "REAR_LEFT",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := svc.IngestReading(context.Background(), ReadingInput{
		SensorID:     "TPMS-022",
		Pressure:     fptr(3.5),
		Temperature:  fptr(105),
		BatteryLevel: fptr(15),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	bySeverity := map[enums.AlertType]enums.AlertSeverity{}
	for _, alert := range result.Alerts {
		bySeverity[alert.Type] = alert.Severity
	}
	if bySeverity[enums.AlertTypeLowPressure] != enums.AlertSeverityHigh {
		t.Fatalf("pressure 3.5 must be HIGH, got %+v", result.Alerts)
	}
	if bySeverity[enums.AlertTypeHighTemp] != enums.AlertSeverityHigh {
		t.Fatalf("temp 105 must be HIGH, got %+v", result.Alerts)
	}
	if bySeverity[enums.AlertTypeLowBattery] != enums.AlertSeverityMedium {
		t.Fatalf("battery 15 must be MEDIUM, got %+v", result.Alerts)
	}
}

func TestAlertsSeverityFilterAndOffline(t *testing.T) {
	repo, _, svc, tenantID, vehicleID := sensorFixture(t)

	now := time.Now().UTC()
	fresh := now.Add(-5 * time.Minute)
	stale := now.Add(-2 * time.Hour)
	repo.sensors["TPMS-030"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "TPMS-030", VehicleID: vehicleID,
		Position: enums.SensorPositionFrontLeft, IsActive: true,
		Pressure: fptr(5.0), LastReading: &fresh,
	}
	repo.sensors["TPMS-031"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "TPMS-031", VehicleID: vehicleID,
		Position: enums.SensorPositionFrontRight, IsActive: true,
		Pressure: fptr(3.0), LastReading: &stale,
	}

	report, err := svc.Alerts(context.Background(), tenantID, AlertQuery{})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	// medium pressure, high pressure, plus offline for the stale sensor
	if report.Summary.Total != 3 || report.Summary.High != 1 || report.Summary.Medium != 2 {
		t.Fatalf("summary = %+v", report.Summary)
	}

	high := enums.AlertSeverityHigh
	filtered, err := svc.Alerts(context.Background(), tenantID, AlertQuery{Severity: &high})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(filtered.Alerts) != 1 || filtered.Alerts[0].Type != enums.AlertTypeLowPressure {
		t.Fatalf("severity filter leaked: %+v", filtered.Alerts)
	}
}

func TestAnalytics(t *testing.T) {
	repo, _, svc, tenantID, vehicleID := sensorFixture(t)

	fresh := time.Now().UTC().Add(-10 * time.Minute)
	stale := time.Now().UTC().Add(-3 * time.Hour)
	repo.sensors["A"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "A", VehicleID: vehicleID, IsActive: true,
		Pressure: fptr(8), Temperature: fptr(40), BatteryLevel: fptr(80), LastReading: &fresh,
	}
	repo.sensors["B"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "B", VehicleID: vehicleID, IsActive: true,
		Pressure: fptr(6), Temperature: fptr(60), BatteryLevel: fptr(40), LastReading: &stale,
	}

	analytics, err := svc.Analytics(context.Background(), tenantID, nil, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.TotalSensors != 2 || analytics.RecentSensors != 1 || analytics.OfflineSensors != 1 {
		t.Fatalf("analytics = %+v", analytics)
	}
	if analytics.AvgPressure != 7 || analytics.AvgTemperature != 50 || analytics.AvgBatteryLevel != 60 {
		t.Fatalf("averages = %+v", analytics)
	}
}

func TestDeactivateSilent(t *testing.T) {
	repo, _, svc, _, vehicleID := sensorFixture(t)

	old := time.Now().UTC().Add(-1000 * time.Hour)
	fresh := time.Now().UTC().Add(-time.Hour)
	repo.sensors["OLD"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "OLD", VehicleID: vehicleID, IsActive: true, LastReading: &old,
	}
	repo.sensors["FRESH"] = &models.TireSensor{
		ID: uuid.New(), SensorID: "FRESH", VehicleID: vehicleID, IsActive: true, LastReading: &fresh,
	}

	count, err := svc.DeactivateSilent(context.Background())
	if err != nil {
		t.Fatalf("deactivate silent: %v", err)
	}
	if count != 1 {
		t.Fatalf("deactivated = %d, want 1", count)
	}
	if repo.sensors["OLD"].IsActive || !repo.sensors["FRESH"].IsActive {
		t.Fatal("wrong sensors deactivated")
	}
}

func TestAssignTireAndDeactivate(t *testing.T) {
	repo, _, svc, tenantID, vehicleID := sensorFixture(t)
	dto, err := svc.Register(context.Background(), tenantID, RegisterSensorInput{
		SensorID: "TPMS-040", VehicleID: vehicleID, Position: "SPARE",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	tireID := uuid.New()
	updated, err := svc.AssignTire(context.Background(), tenantID, dto.ID, tireID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.TireID == nil || *updated.TireID != tireID {
		t.Fatalf("tire not assigned: %+v", updated)
	}

	if err := svc.Deactivate(context.Background(), tenantID, dto.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.sensors["TPMS-040"].IsActive {
		t.Fatal("sensor still active")
	}

	if err := svc.Deactivate(context.Background(), uuid.New(), dto.ID); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("foreign tenant deactivate must be NOT_FOUND")
	}
}

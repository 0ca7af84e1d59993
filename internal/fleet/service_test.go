package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

func errCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func fptr(v float64) *float64 { return &v }

type fakeFleetRepo struct {
	fleets   map[uuid.UUID]*models.Fleet
	vehicles []*models.Vehicle
}

func newFakeFleetRepo() *fakeFleetRepo {
	return &fakeFleetRepo{fleets: map[uuid.UUID]*models.Fleet{}}
}

func (f *fakeFleetRepo) Create(_ context.Context, fleet *models.Fleet) error {
	fleet.ID = uuid.New()
	f.fleets[fleet.ID] = fleet
	return nil
}

func (f *fakeFleetRepo) FindForTenant(_ context.Context, tenantID, fleetID uuid.UUID) (*models.Fleet, error) {
	fleet, ok := f.fleets[fleetID]
	if !ok || fleet.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return fleet, nil
}

func (f *fakeFleetRepo) List(_ context.Context, tenantID uuid.UUID, _ pagination.Params) ([]models.Fleet, int64, error) {
	var rows []models.Fleet
	for _, fleet := range f.fleets {
		if fleet.TenantID == tenantID {
			rows = append(rows, *fleet)
		}
	}
	return rows, int64(len(rows)), nil
}

func (f *fakeFleetRepo) Update(_ context.Context, fleet *models.Fleet) error {
	f.fleets[fleet.ID] = fleet
	return nil
}

func (f *fakeFleetRepo) CreateVehicle(_ context.Context, vehicle *models.Vehicle) error {
	vehicle.ID = uuid.New()
	f.vehicles = append(f.vehicles, vehicle)
	if fleet, ok := f.fleets[vehicle.FleetID]; ok {
		fleet.Vehicles = append(fleet.Vehicles, *vehicle)
	}
	return nil
}

func fleetFixture(t *testing.T) (*fakeFleetRepo, Service, uuid.UUID) {
	t.Helper()
	repo := newFakeFleetRepo()
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return repo, svc, uuid.New()
}

func TestCreateFleet(t *testing.T) {
	_, svc, tenantID := fleetFixture(t)

	dto, err := svc.Create(context.Background(), tenantID, CreateFleetInput{
		Name: "Transportes Norte",
		Type: "LOGISTICS",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Transportes Norte" || dto.Type != enums.FleetTypeLogistics {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestCreateFleetValidation(t *testing.T) {
	_, svc, tenantID := fleetFixture(t)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	cases := []struct {
		name  string
		input CreateFleetInput
	}{
		{"empty name", CreateFleetInput{Name: "  ", Type: "LOGISTICS"}},
		{"unknown type", CreateFleetInput{Name: "X", Type: "TAXI"}},
		{"inverted contract", CreateFleetInput{Name: "X", Type: "MUNICIPAL", ContractStart: &start, ContractEnd: &end}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tenantID, tc.input); errCode(err) != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want VALIDATION", errCode(err))
			}
		})
	}
}

func TestAddVehicle(t *testing.T) {
	_, svc, tenantID := fleetFixture(t)

	fleet, err := svc.Create(context.Background(), tenantID, CreateFleetInput{Name: "Obras Sul", Type: "CONSTRUCTION"})
	if err != nil {
		t.Fatalf("create fleet: %v", err)
	}

	vehicle, err := svc.AddVehicle(context.Background(), tenantID, fleet.ID, AddVehicleInput{
		Make:         "Volvo",
		Model:        "FH16",
		Year:         2022,
		LicensePlate: "AA-01-BB",
		Type:         "TRUCK",
	})
	if err != nil {
		t.Fatalf("add vehicle: %v", err)
	}
	if vehicle.TireCount != 4 {
		t.Fatalf("tire count default = %d, want 4", vehicle.TireCount)
	}
	if vehicle.Type != enums.VehicleTypeTruck {
		t.Fatalf("type = %s, want TRUCK", vehicle.Type)
	}
}

func TestAddVehicleValidation(t *testing.T) {
	_, svc, tenantID := fleetFixture(t)
	fleet, _ := svc.Create(context.Background(), tenantID, CreateFleetInput{Name: "F", Type: "LOGISTICS"})

	base := AddVehicleInput{Make: "MAN", Model: "TGX", Year: 2020, LicensePlate: "BB-02-CC", Type: "TRUCK"}

	tooOld := base
	tooOld.Year = 1899
	tooMany := base
	tooMany.TireCount = 19
	badType := base
	badType.Type = "TRACTOR"
	negativeKM := base
	negativeKM.CurrentKM = -1

	for name, input := range map[string]AddVehicleInput{
		"year too old":   tooOld,
		"too many tires": tooMany,
		"unknown type":   badType,
		"negative km":    negativeKM,
		"missing make":   {Model: "TGX", Year: 2020, LicensePlate: "P", Type: "TRUCK"},
		"missing plate":  {Make: "MAN", Model: "TGX", Year: 2020, Type: "TRUCK"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.AddVehicle(context.Background(), tenantID, fleet.ID, input); errCode(err) != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want VALIDATION", errCode(err))
			}
		})
	}

	if _, err := svc.AddVehicle(context.Background(), tenantID, uuid.New(), base); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("unknown fleet must be NOT_FOUND")
	}
	if _, err := svc.AddVehicle(context.Background(), uuid.New(), fleet.ID, base); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("foreign tenant fleet must be NOT_FOUND")
	}
}

func TestFleetAnalytics(t *testing.T) {
	repo, svc, tenantID := fleetFixture(t)

	fleetID := uuid.New()
	repo.fleets[fleetID] = &models.Fleet{
		ID:       fleetID,
		TenantID: tenantID,
		Name:     "Distribuicao Centro",
		Type:     enums.FleetTypeLogistics,
		Vehicles: []models.Vehicle{
			{
				ID: uuid.New(),
				Sensors: []models.TireSensor{
					{IsActive: true, Pressure: fptr(8.0)},
					{IsActive: true, Pressure: fptr(5.0)},
				},
			},
			{
				ID: uuid.New(),
				Sensors: []models.TireSensor{
					{IsActive: false, Pressure: fptr(7.0)},
					{IsActive: true},
				},
			},
		},
	}

	analytics, err := svc.Analytics(context.Background(), tenantID, fleetID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.TotalVehicles != 2 {
		t.Fatalf("vehicles = %d, want 2", analytics.TotalVehicles)
	}
	if analytics.ActiveSensors != 3 {
		t.Fatalf("active sensors = %d, want 3", analytics.ActiveSensors)
	}
	if analytics.LowPressureAlerts != 1 {
		t.Fatalf("low pressure alerts = %d, want 1", analytics.LowPressureAlerts)
	}
	// vehicle averages 6.5 and 7.0 over two vehicles
	if analytics.AvgPressure != 6.75 {
		t.Fatalf("avg pressure = %v, want 6.75", analytics.AvgPressure)
	}
}

func TestUpdateFleet(t *testing.T) {
	_, svc, tenantID := fleetFixture(t)
	fleet, _ := svc.Create(context.Background(), tenantID, CreateFleetInput{Name: "Old", Type: "MUNICIPAL"})

	name := "Camara Municipal"
	updated, err := svc.Update(context.Background(), tenantID, fleet.ID, UpdateFleetInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name = %q, want %q", updated.Name, name)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), fleet.ID, UpdateFleetInput{}); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("foreign tenant update must be NOT_FOUND")
	}
}

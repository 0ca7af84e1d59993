package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/tiredist/tiredist-backend/internal/catalog"
	checkoutsvc "github.com/tiredist/tiredist-backend/internal/checkout"
	fleetsvc "github.com/tiredist/tiredist-backend/internal/fleet"
	inventorysvc "github.com/tiredist/tiredist-backend/internal/inventory"
	loyaltysvc "github.com/tiredist/tiredist-backend/internal/loyalty"
	orderssvc "github.com/tiredist/tiredist-backend/internal/orders"
	pricingsvc "github.com/tiredist/tiredist-backend/internal/pricing"
	retreadssvc "github.com/tiredist/tiredist-backend/internal/retreads"
	reviewssvc "github.com/tiredist/tiredist-backend/internal/reviews"
	sensorssvc "github.com/tiredist/tiredist-backend/internal/sensors"
	tenantssvc "github.com/tiredist/tiredist-backend/internal/tenants"
	userssvc "github.com/tiredist/tiredist-backend/internal/users"
	pkgAuth "github.com/tiredist/tiredist-backend/pkg/auth"
	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
	"github.com/tiredist/tiredist-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubTenantsService struct {
	resolveHost func(ctx context.Context, host string) (*tenantssvc.ResolvedTenant, error)
}

func (s stubTenantsService) ResolveHost(ctx context.Context, host string) (*tenantssvc.ResolvedTenant, error) {
	if s.resolveHost != nil {
		return s.resolveHost(ctx, host)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
}

func (stubTenantsService) GetByID(ctx context.Context, id uuid.UUID) (*tenantssvc.TenantDTO, error) {
	return &tenantssvc.TenantDTO{ID: id, Slug: "alpina", Type: enums.TenantTypeReseller}, nil
}

func (stubTenantsService) ListResellers(ctx context.Context) ([]tenantssvc.TenantDTO, error) {
	return []tenantssvc.TenantDTO{}, nil
}

// CreateReseller implements [tenants.Service].
func (stubTenantsService) CreateReseller(ctx context.Context, input tenantssvc.CreateResellerInput) (*tenantssvc.CreateResellerResult, error) {
	panic("unimplemented")
}

// Update implements [tenants.Service].
func (stubTenantsService) Update(ctx context.Context, id uuid.UUID, input tenantssvc.UpdateTenantInput) (*tenantssvc.TenantDTO, error) {
	panic("unimplemented")
}

type stubUsersService struct{}

// Login implements [users.Service].
func (stubUsersService) Login(ctx context.Context, email, password string) (*userssvc.LoginResult, error) {
	panic("unimplemented")
}

// ChangePassword implements [users.Service].
func (stubUsersService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	panic("unimplemented")
}

type stubCatalogService struct{}

// Browse implements [catalog.Service].
func (stubCatalogService) Browse(ctx context.Context, tenantID uuid.UUID, q catalogsvc.BrowseQuery) (*catalogsvc.CatalogPage, error) {
	panic("unimplemented")
}

// GetItem implements [catalog.Service].
func (stubCatalogService) GetItem(ctx context.Context, tenantID, tireID uuid.UUID) (*catalogsvc.CatalogItem, error) {
	panic("unimplemented")
}

// ListTires implements [catalog.Service].
func (stubCatalogService) ListTires(ctx context.Context, tenantID uuid.UUID, q catalogsvc.ListTiresQuery) ([]catalogsvc.TireDTO, pagination.Page, error) {
	return []catalogsvc.TireDTO{}, pagination.Page{}, nil
}

// GetTire implements [catalog.Service].
func (stubCatalogService) GetTire(ctx context.Context, tenantID, tireID uuid.UUID) (*catalogsvc.TireDTO, error) {
	panic("unimplemented")
}

// CreateTire implements [catalog.Service].
func (stubCatalogService) CreateTire(ctx context.Context, tenantID uuid.UUID, input catalogsvc.CreateTireInput) (*catalogsvc.TireDTO, error) {
	panic("unimplemented")
}

// UpdateTire implements [catalog.Service].
func (stubCatalogService) UpdateTire(ctx context.Context, tenantID, tireID uuid.UUID, input catalogsvc.UpdateTireInput) (*catalogsvc.TireDTO, error) {
	panic("unimplemented")
}

type stubInventoryService struct{}

// SyncStock implements [inventory.Service].
func (stubInventoryService) SyncStock(ctx context.Context, distributorID, tireID uuid.UUID, quantity int) (*inventorysvc.SyncResult, error) {
	panic("unimplemented")
}

// SyncReseller implements [inventory.Service].
func (stubInventoryService) SyncReseller(ctx context.Context, resellerID, tireID uuid.UUID) (*inventorysvc.SyncResult, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

// Create implements [orders.Service].
func (stubOrdersService) Create(ctx context.Context, tenantID uuid.UUID, input orderssvc.CreateOrderInput) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

// Get implements [orders.Service].
func (stubOrdersService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

// List implements [orders.Service].
func (stubOrdersService) List(ctx context.Context, tenantID uuid.UUID, q orderssvc.ListOrdersQuery) ([]orderssvc.OrderDTO, pagination.Page, error) {
	return []orderssvc.OrderDTO{}, pagination.Page{}, nil
}

// UpdateStatus implements [orders.Service].
func (stubOrdersService) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

// CreateSession implements [checkout.Service].
func (stubCheckoutService) CreateSession(ctx context.Context, tenantID uuid.UUID, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	panic("unimplemented")
}

type stubLoyaltyService struct{}

// EnsureProgram implements [loyalty.Service].
func (stubLoyaltyService) EnsureProgram(ctx context.Context, tenantID uuid.UUID) (*models.LoyaltyProgram, error) {
	panic("unimplemented")
}

// Enroll implements [loyalty.Service].
func (stubLoyaltyService) Enroll(ctx context.Context, tenantID uuid.UUID, input loyaltysvc.EnrollInput) (*loyaltysvc.CustomerDTO, error) {
	panic("unimplemented")
}

// GetCustomer implements [loyalty.Service].
func (stubLoyaltyService) GetCustomer(ctx context.Context, tenantID uuid.UUID, email string) (*loyaltysvc.CustomerDTO, error) {
	panic("unimplemented")
}

// AwardForPurchase implements [loyalty.Service].
func (stubLoyaltyService) AwardForPurchase(ctx context.Context, tenantID uuid.UUID, email string, total decimal.Decimal) (int, error) {
	panic("unimplemented")
}

// Redeem implements [loyalty.Service].
func (stubLoyaltyService) Redeem(ctx context.Context, tenantID uuid.UUID, email string, points int) (*loyaltysvc.CustomerDTO, error) {
	panic("unimplemented")
}

// AwardReferral implements [loyalty.Service].
func (stubLoyaltyService) AwardReferral(ctx context.Context, tenantID uuid.UUID, referrerEmail string) (*loyaltysvc.CustomerDTO, error) {
	panic("unimplemented")
}

type stubRetreadsService struct{}

// Create implements [retreads.Service].
func (stubRetreadsService) Create(ctx context.Context, tenantID uuid.UUID, input retreadssvc.CreateRetreadInput) (*retreadssvc.RetreadDTO, error) {
	panic("unimplemented")
}

// CasingHistory implements [retreads.Service].
func (stubRetreadsService) CasingHistory(ctx context.Context, tenantID uuid.UUID, casingID string) (*retreadssvc.CasingHistory, error) {
	panic("unimplemented")
}

// List implements [retreads.Service].
func (stubRetreadsService) List(ctx context.Context, tenantID uuid.UUID, q retreadssvc.ListRetreadsQuery) (*retreadssvc.RetreadPage, error) {
	return &retreadssvc.RetreadPage{}, nil
}

// Analytics implements [retreads.Service].
func (stubRetreadsService) Analytics(ctx context.Context, tenantID uuid.UUID, q retreadssvc.AnalyticsQuery) (*retreadssvc.RetreadAnalytics, error) {
	panic("unimplemented")
}

// GenerateQR implements [retreads.Service].
func (stubRetreadsService) GenerateQR(ctx context.Context, tenantID uuid.UUID, casingID string, tireID uuid.UUID) (*retreadssvc.QRCodeResult, error) {
	panic("unimplemented")
}

// ScanQR implements [retreads.Service].
func (stubRetreadsService) ScanQR(ctx context.Context, data string) (*retreadssvc.ScanResult, error) {
	panic("unimplemented")
}

type stubFleetService struct{}

// Create implements [fleet.Service].
func (stubFleetService) Create(ctx context.Context, tenantID uuid.UUID, input fleetsvc.CreateFleetInput) (*fleetsvc.FleetDTO, error) {
	panic("unimplemented")
}

// Get implements [fleet.Service].
func (stubFleetService) Get(ctx context.Context, tenantID, fleetID uuid.UUID) (*fleetsvc.FleetDTO, error) {
	panic("unimplemented")
}

// List implements [fleet.Service].
func (stubFleetService) List(ctx context.Context, tenantID uuid.UUID, page pagination.Params) (*fleetsvc.FleetPage, error) {
	return &fleetsvc.FleetPage{}, nil
}

// Update implements [fleet.Service].
func (stubFleetService) Update(ctx context.Context, tenantID, fleetID uuid.UUID, input fleetsvc.UpdateFleetInput) (*fleetsvc.FleetDTO, error) {
	panic("unimplemented")
}

// AddVehicle implements [fleet.Service].
func (stubFleetService) AddVehicle(ctx context.Context, tenantID, fleetID uuid.UUID, input fleetsvc.AddVehicleInput) (*fleetsvc.VehicleDTO, error) {
	panic("unimplemented")
}

// Analytics implements [fleet.Service].
func (stubFleetService) Analytics(ctx context.Context, tenantID, fleetID uuid.UUID) (*fleetsvc.FleetAnalytics, error) {
	panic("unimplemented")
}

type stubSensorsService struct{}

// Register implements [sensors.Service].
func (stubSensorsService) Register(ctx context.Context, tenantID uuid.UUID, input sensorssvc.RegisterSensorInput) (*sensorssvc.SensorDTO, error) {
	panic("unimplemented")
}

// Get implements [sensors.Service].
func (stubSensorsService) Get(ctx context.Context, tenantID, id uuid.UUID) (*sensorssvc.SensorDTO, error) {
	panic("unimplemented")
}

// List implements [sensors.Service].
func (stubSensorsService) List(ctx context.Context, tenantID uuid.UUID, q sensorssvc.ListSensorsQuery) (*sensorssvc.SensorPage, error) {
	return &sensorssvc.SensorPage{}, nil
}

// IngestReading implements [sensors.Service].
func (stubSensorsService) IngestReading(ctx context.Context, input sensorssvc.ReadingInput) (*sensorssvc.ReadingResult, error) {
	panic("unimplemented")
}

// Alerts implements [sensors.Service].
func (stubSensorsService) Alerts(ctx context.Context, tenantID uuid.UUID, q sensorssvc.AlertQuery) (*sensorssvc.AlertReport, error) {
	panic("unimplemented")
}

// Analytics implements [sensors.Service].
func (stubSensorsService) Analytics(ctx context.Context, tenantID uuid.UUID, vehicleID, fleetID *uuid.UUID) (*sensorssvc.SensorAnalytics, error) {
	panic("unimplemented")
}

// AssignTire implements [sensors.Service].
func (stubSensorsService) AssignTire(ctx context.Context, tenantID, id, tireID uuid.UUID) (*sensorssvc.SensorDTO, error) {
	panic("unimplemented")
}

// Deactivate implements [sensors.Service].
func (stubSensorsService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	panic("unimplemented")
}

// DeactivateSilent implements [sensors.Service].
func (stubSensorsService) DeactivateSilent(ctx context.Context) (int64, error) {
	panic("unimplemented")
}

type stubReviewsService struct{}

// Create implements [reviews.Service].
func (stubReviewsService) Create(ctx context.Context, tenantID uuid.UUID, input reviewssvc.CreateReviewInput) (*reviewssvc.ReviewDTO, error) {
	panic("unimplemented")
}

// ListApproved implements [reviews.Service].
func (stubReviewsService) ListApproved(ctx context.Context, tenantID uuid.UUID, q reviewssvc.ListReviewsQuery) (*reviewssvc.ReviewPage, error) {
	panic("unimplemented")
}

// ListPending implements [reviews.Service].
func (stubReviewsService) ListPending(ctx context.Context, tenantID uuid.UUID) ([]reviewssvc.ReviewDTO, error) {
	return []reviewssvc.ReviewDTO{}, nil
}

// Approve implements [reviews.Service].
func (stubReviewsService) Approve(ctx context.Context, tenantID, reviewID uuid.UUID) (*reviewssvc.ReviewDTO, error) {
	panic("unimplemented")
}

type stubPricingService struct{}

// Suggest implements [pricing.Service].
func (stubPricingService) Suggest(ctx context.Context, input pricingsvc.SuggestionInput) (*pricingsvc.Suggestion, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, tenants tenantssvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Params{
		Config:    cfg,
		Logger:    logg,
		DBPinger:  stubPinger{},
		Redis:     (*redis.Client)(nil),
		Tenants:   tenants,
		Users:     stubUsersService{},
		Catalog:   stubCatalogService{},
		Inventory: stubInventoryService{},
		Orders:    stubOrdersService{},
		Checkout:  stubCheckoutService{},
		Loyalty:   stubLoyaltyService{},
		Retreads:  stubRetreadsService{},
		Fleet:     stubFleetService{},
		Sensors:   stubSensorsService{},
		Reviews:   stubReviewsService{},
		Pricing:   stubPricingService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	tenantType := enums.TenantTypeDistributor
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		TenantID:   uuid.New(),
		Role:       role,
		TenantType: &tenantType,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveAlwaysResponds(t *testing.T) {
	router := newTestRouter(testConfig(), stubTenantsService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubTenantsService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubTenantsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenant/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubTenantsService{})

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/resellers", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/resellers", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStorefrontResolvesTenantFromHost(t *testing.T) {
	tenantID := uuid.New()
	var seenHost string
	tenants := stubTenantsService{
		resolveHost: func(ctx context.Context, host string) (*tenantssvc.ResolvedTenant, error) {
			seenHost = host
			if host != "alpina.tiredist.com" {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
			}
			return &tenantssvc.ResolvedTenant{ID: tenantID, Type: enums.TenantTypeReseller, Slug: "alpina"}, nil
		},
	}
	router := newTestRouter(testConfig(), tenants)

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/config", nil)
	req.Host = "Alpina.TireDist.com:443"
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if seenHost != "alpina.tiredist.com" {
		t.Fatalf("expected normalized host, got %q", seenHost)
	}
}

func TestStorefrontUnknownHostReturnsNotFound(t *testing.T) {
	router := newTestRouter(testConfig(), stubTenantsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/catalog", nil)
	req.Host = "unknown.example.com"
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown host got %d", resp.Code)
	}
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	router := newTestRouter(testConfig(), stubTenantsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/public/sensors/readings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("public route must not require auth, got %d", resp.Code)
	}
}

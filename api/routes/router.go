package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiredist/tiredist-backend/api/controllers"
	webhookcontrollers "github.com/tiredist/tiredist-backend/api/controllers/webhooks"
	"github.com/tiredist/tiredist-backend/api/middleware"
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
	stripewebhook "github.com/tiredist/tiredist-backend/internal/webhooks/stripe"
	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/redis"
	"github.com/tiredist/tiredist-backend/pkg/stripe"
)

// Params collects everything the router wires together.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger db.Pinger
	Redis    *redis.Client

	Tenants   tenantssvc.Service
	Users     userssvc.Service
	Catalog   catalogsvc.Service
	Inventory inventorysvc.Service
	Orders    orderssvc.Service
	Checkout  checkoutsvc.Service
	Loyalty   loyaltysvc.Service
	Retreads  retreadssvc.Service
	Fleet     fleetsvc.Service
	Sensors   sensorssvc.Service
	Reviews   reviewssvc.Service
	Pricing   pricingsvc.Service

	StripeClient       *stripe.Client
	StripeWebhooks     *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

// NewRouter assembles the HTTP surface: public device and webhook routes,
// the host-resolved storefront, the authenticated B2B API, and the admin API.
func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.Redis))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Device and field routes authenticate by payload content, not session.
	r.Route("/api/public", func(r chi.Router) {
		r.Post("/sensors/readings", controllers.SensorIngestReading(p.Sensors, logg))
		r.Post("/retreads/scan", controllers.RetreadScanQR(p.Retreads, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhooks, p.StripeClient, p.StripeWebhookGuard, logg))
	})

	r.Post("/api/v1/auth/login", controllers.AuthLogin(p.Users, logg))

	// Storefront routes resolve the tenant from the request host.
	r.Route("/api/storefront", func(r chi.Router) {
		r.Use(middleware.ResolveTenant(tenantDirectory(p.Tenants), logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/config", controllers.StorefrontConfig(p.Tenants, logg))
		r.Get("/catalog", controllers.StorefrontCatalog(p.Catalog, logg))
		r.Get("/catalog/{tireId}", controllers.StorefrontCatalogItem(p.Catalog, logg))
		r.Get("/catalog/{tireId}/reviews", controllers.StorefrontListReviews(p.Reviews, logg))
		r.Post("/reviews", controllers.StorefrontCreateReview(p.Reviews, logg))
		r.Post("/orders", controllers.StorefrontCreateOrder(p.Orders, logg))
		r.Post("/checkout", controllers.StorefrontCheckout(p.Checkout, logg))
		r.Route("/loyalty", func(r chi.Router) {
			r.Post("/enroll", controllers.LoyaltyEnroll(p.Loyalty, logg))
			r.Get("/customer", controllers.LoyaltyCustomer(p.Loyalty, logg))
			r.Post("/redeem", controllers.LoyaltyRedeem(p.Loyalty, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Post("/auth/change-password", controllers.AuthChangePassword(p.Users, logg))

		r.Route("/tenant", func(r chi.Router) {
			r.Get("/me", controllers.TenantProfile(p.Tenants, logg))
			r.Put("/me", controllers.TenantUpdate(p.Tenants, logg))
		})

		r.Route("/tires", func(r chi.Router) {
			r.Get("/", controllers.TireList(p.Catalog, logg))
			r.Post("/", controllers.TireCreate(p.Catalog, logg))
			r.Get("/{tireId}", controllers.TireDetail(p.Catalog, logg))
			r.Put("/{tireId}", controllers.TireUpdate(p.Catalog, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/stock", controllers.SyncStock(p.Inventory, logg))
			r.Post("/stock/{tireId}", controllers.SyncResellerStock(p.Inventory, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Post("/{orderId}/status", controllers.OrderUpdateStatus(p.Orders, logg))
		})

		r.Route("/retreads", func(r chi.Router) {
			r.Post("/", controllers.RetreadCreate(p.Retreads, logg))
			r.Get("/", controllers.RetreadList(p.Retreads, logg))
			r.Get("/analytics", controllers.RetreadAnalytics(p.Retreads, logg))
			r.Get("/casings/{casingId}", controllers.RetreadCasingHistory(p.Retreads, logg))
			r.Post("/qr", controllers.RetreadGenerateQR(p.Retreads, logg))
		})

		r.Route("/fleets", func(r chi.Router) {
			r.Post("/", controllers.FleetCreate(p.Fleet, logg))
			r.Get("/", controllers.FleetList(p.Fleet, logg))
			r.Get("/{fleetId}", controllers.FleetDetail(p.Fleet, logg))
			r.Put("/{fleetId}", controllers.FleetUpdate(p.Fleet, logg))
			r.Post("/{fleetId}/vehicles", controllers.FleetAddVehicle(p.Fleet, logg))
			r.Get("/{fleetId}/analytics", controllers.FleetAnalytics(p.Fleet, logg))
		})

		r.Route("/sensors", func(r chi.Router) {
			r.Post("/", controllers.SensorRegister(p.Sensors, logg))
			r.Get("/", controllers.SensorList(p.Sensors, logg))
			r.Get("/alerts", controllers.SensorAlerts(p.Sensors, logg))
			r.Get("/analytics", controllers.SensorAnalytics(p.Sensors, logg))
			r.Get("/{sensorId}", controllers.SensorDetail(p.Sensors, logg))
			r.Post("/{sensorId}/tire", controllers.SensorAssignTire(p.Sensors, logg))
			r.Delete("/{sensorId}", controllers.SensorDeactivate(p.Sensors, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/pending", controllers.ReviewModerationQueue(p.Reviews, logg))
			r.Post("/{reviewId}/approve", controllers.ReviewApprove(p.Reviews, logg))
		})

		r.Post("/loyalty/referral", controllers.LoyaltyReferral(p.Loyalty, logg))
		r.Post("/pricing/suggest", controllers.PricingSuggest(p.Pricing, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/resellers", func(r chi.Router) {
			r.Get("/", controllers.AdminListResellers(p.Tenants, logg))
			r.Post("/", controllers.AdminCreateReseller(p.Tenants, logg))
		})
		r.Put("/tenants/{tenantId}", controllers.AdminUpdateTenant(p.Tenants, logg))
	})

	return r
}

// tenantDirectory adapts the tenant service to the host middleware.
func tenantDirectory(svc tenantssvc.Service) middleware.TenantDirectory {
	return middleware.TenantDirectoryFunc(func(ctx context.Context, host string) (middleware.TenantInfo, error) {
		resolved, err := svc.ResolveHost(ctx, host)
		if err != nil {
			return middleware.TenantInfo{}, err
		}
		return middleware.TenantInfo{
			ID:   resolved.ID.String(),
			Type: string(resolved.Type),
			Slug: resolved.Slug,
		}, nil
	})
}

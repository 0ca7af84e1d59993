package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tiredist/tiredist-backend/api/routes"
	"github.com/tiredist/tiredist-backend/internal/catalog"
	"github.com/tiredist/tiredist-backend/internal/checkout"
	"github.com/tiredist/tiredist-backend/internal/fleet"
	"github.com/tiredist/tiredist-backend/internal/inventory"
	"github.com/tiredist/tiredist-backend/internal/loyalty"
	"github.com/tiredist/tiredist-backend/internal/orders"
	"github.com/tiredist/tiredist-backend/internal/pricing"
	"github.com/tiredist/tiredist-backend/internal/retreads"
	"github.com/tiredist/tiredist-backend/internal/reviews"
	"github.com/tiredist/tiredist-backend/internal/sensors"
	"github.com/tiredist/tiredist-backend/internal/tenants"
	"github.com/tiredist/tiredist-backend/internal/users"
	stripewebhook "github.com/tiredist/tiredist-backend/internal/webhooks/stripe"
	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/migrate"
	"github.com/tiredist/tiredist-backend/pkg/openai"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/redis"
	pkgstripe "github.com/tiredist/tiredist-backend/pkg/stripe"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	fatal := func(msg string, err error) {
		logg.Error(context.Background(), msg, err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg, db.Options{UseSQLite: cfg.Features.UseSQLite})
	if err != nil {
		fatal("failed to bootstrap database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		fatal("failed to run dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fatal("failed to bootstrap redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		fatal("failed to initialize stripe", err)
	}
	openaiClient, err := openai.NewClient(context.Background(), cfg.OpenAI, logg)
	if err != nil {
		fatal("failed to initialize openai", err)
	}

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	tenantsRepo := tenants.NewRepository(gormDB)
	usersRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)

	tenantsService, err := tenants.NewService(tenantsRepo, catalogRepo, usersRepo, dbClient, outboxService, redisClient, cfg.Platform, cfg.Password, logg)
	if err != nil {
		fatal("failed to create tenants service", err)
	}
	usersService, err := users.NewService(usersRepo, tenantsRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		fatal("failed to create users service", err)
	}
	catalogService, err := catalog.NewService(catalogRepo, tenantsRepo, logg)
	if err != nil {
		fatal("failed to create catalog service", err)
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), tenantsRepo, dbClient, outboxService, logg)
	if err != nil {
		fatal("failed to create inventory service", err)
	}
	ordersService, err := orders.NewService(ordersRepo, tenantsRepo, catalogRepo, dbClient, outboxService, logg)
	if err != nil {
		fatal("failed to create orders service", err)
	}
	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(gormDB), cfg.Loyalty, logg)
	if err != nil {
		fatal("failed to create loyalty service", err)
	}
	stripeCheckout := checkout.NewStripeClient(stripeClient)
	checkoutService, err := checkout.NewService(tenantsRepo, catalogRepo, stripeCheckout, logg)
	if err != nil {
		fatal("failed to create checkout service", err)
	}
	retreadsService, err := retreads.NewService(retreads.NewRepository(gormDB), dbClient, outboxService, logg)
	if err != nil {
		fatal("failed to create retreads service", err)
	}
	fleetService, err := fleet.NewService(fleet.NewRepository(gormDB), logg)
	if err != nil {
		fatal("failed to create fleet service", err)
	}
	sensorsService, err := sensors.NewService(sensors.NewRepository(gormDB), dbClient, outboxService, cfg.Sensors, logg)
	if err != nil {
		fatal("failed to create sensors service", err)
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), catalogRepo, logg)
	if err != nil {
		fatal("failed to create reviews service", err)
	}
	pricingService, err := pricing.NewService(openaiClient, cfg.Catalog, logg)
	if err != nil {
		fatal("failed to create pricing service", err)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe-webhook")
	if err != nil {
		fatal("failed to create webhook idempotency guard", err)
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrderRepo:         ordersRepo,
		Loyalty:           loyaltyService,
		Stripe:            stripeCheckout,
		TransactionRunner: dbClient,
		Events:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		fatal("failed to create stripe webhook service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:             cfg,
			Logger:             logg,
			DBPinger:           dbClient,
			Redis:              redisClient,
			Tenants:            tenantsService,
			Users:              usersService,
			Catalog:            catalogService,
			Inventory:          inventoryService,
			Orders:             ordersService,
			Checkout:           checkoutService,
			Loyalty:            loyaltyService,
			Retreads:           retreadsService,
			Fleet:              fleetService,
			Sensors:            sensorsService,
			Reviews:            reviewsService,
			Pricing:            pricingService,
			StripeClient:       stripeClient,
			StripeWebhooks:     webhookService,
			StripeWebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

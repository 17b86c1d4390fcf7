package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foliobooks/bookstore-backend/api/routes"
	"github.com/foliobooks/bookstore-backend/internal/auth"
	"github.com/foliobooks/bookstore-backend/internal/cart"
	"github.com/foliobooks/bookstore-backend/internal/catalog"
	"github.com/foliobooks/bookstore-backend/internal/checkout"
	"github.com/foliobooks/bookstore-backend/internal/customers"
	"github.com/foliobooks/bookstore-backend/internal/favorites"
	"github.com/foliobooks/bookstore-backend/internal/notifications"
	"github.com/foliobooks/bookstore-backend/internal/orders"
	"github.com/foliobooks/bookstore-backend/pkg/auth/session"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/metrics"
	"github.com/foliobooks/bookstore-backend/pkg/migrate"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		CustomerRepo:   customers.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	snapshots, err := cart.NewSnapshotRepository(redisClient, cfg.Cart.SnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart snapshot repository", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(snapshots, catalogRepo, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(favorites.NewRepository(dbClient.DB()), catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	checkoutService, err := checkout.NewService(checkout.Params{
		Tx:        dbClient,
		Snapshots: snapshots,
		Books:     catalogRepo,
		Orders:    ordersRepo,
		Locks:     redisClient,
		Outbox:    outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Reserver:  checkout.NewCatalogReserver(catalogRepo),
		Metrics:   metrics.NewCheckoutMetrics(promRegistry),
		Logger:    logg,
		LockTTL:   cfg.Cart.CheckoutLockTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			registerService,
			catalogService,
			cartService,
			checkoutService,
			favoritesService,
			ordersService,
			notificationsService,
			promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliobooks/bookstore-backend/api/controllers"
	"github.com/foliobooks/bookstore-backend/api/middleware"
	"github.com/foliobooks/bookstore-backend/internal/auth"
	cartsvc "github.com/foliobooks/bookstore-backend/internal/cart"
	"github.com/foliobooks/bookstore-backend/internal/catalog"
	checkoutsvc "github.com/foliobooks/bookstore-backend/internal/checkout"
	"github.com/foliobooks/bookstore-backend/internal/favorites"
	"github.com/foliobooks/bookstore-backend/internal/notifications"
	"github.com/foliobooks/bookstore-backend/internal/orders"
	"github.com/foliobooks/bookstore-backend/pkg/auth/session"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	catalogService catalog.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	favoritesService favorites.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	// Catalog browsing is anonymous.
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", controllers.BookList(catalogService, logg))
		r.Get("/{isbn}", controllers.BookDetail(catalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{isbn}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{isbn}", controllers.CartRemoveItem(cartService, logg))
			r.Put("/shipping", controllers.CartSetShipping(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(favoritesService, logg))
			r.Get("/ids", controllers.FavoritesIDs(favoritesService, logg))
			r.Post("/", controllers.FavoritesAdd(favoritesService, logg))
			r.Delete("/{isbn}", controllers.FavoritesRemove(favoritesService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(notificationsService, logg))
			r.Put("/read-all", controllers.NotificationsMarkAllRead(notificationsService, logg))
			r.Put("/{notificationId}/read", controllers.NotificationsMarkRead(notificationsService, logg))
		})
	})

	return r
}

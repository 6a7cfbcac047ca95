package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/api/handler"
	"github.com/panciteria/storefront-bff/internal/api/middleware"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/service"
	"github.com/panciteria/storefront-bff/internal/infrastructure/backend"
	"github.com/panciteria/storefront-bff/internal/infrastructure/config"
	redisinfra "github.com/panciteria/storefront-bff/internal/infrastructure/db/redis"
	"github.com/panciteria/storefront-bff/internal/infrastructure/session"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))

	// --- Dependencies ---
	// No client timeout: requests wait on the platform default, and payment
	// waits are bounded by the request context instead.
	httpClient := &http.Client{}

	store := session.NewRedisStore(rdb, cfg.SessionTTL, log)
	gateway := backend.NewGateway(httpClient, store, cfg.Accounts.BaseURL, log)
	accounts := backend.NewAccountsClient(httpClient, cfg.Accounts.BaseURL, log)
	inventory, err := backend.NewInventoryClient(gateway, cfg.Inventory.BaseURL, log)
	if err != nil {
		return nil, err
	}

	cartService := service.NewCartService(store, inventory, log)
	paymentService := service.NewPaymentService(inventory, cartService, 0, 0, log)
	guard := redisinfra.NewCheckoutGuard(rdb)

	authHandler := handler.NewAuthHandler(accounts, store, cartService, cfg.SessionSecret, cfg.SessionTTL)
	cartHandler := handler.NewCartHandler(cartService, guard)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	inventoryProxy := handler.NewProxyHandler(gateway, cfg.Inventory.BaseURL, "/api/inventory")
	accountsProxy := handler.NewProxyHandler(gateway, cfg.Accounts.BaseURL, "/api/accounts")

	requireSession := middleware.Session(cfg.SessionSecret, store)
	optionalSession := middleware.OptionalSession(cfg.SessionSecret, store)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/logout", authHandler.Logout, requireSession)
	e.GET("/auth/me", authHandler.Me, requireSession)

	// --- Cart routes (no-session requests fall through as no-ops) ---
	cart := e.Group("/api/cart", optionalSession)
	cart.GET("", cartHandler.Get)
	cart.POST("/add", cartHandler.Add)
	cart.POST("/remove", cartHandler.Remove)
	cart.POST("/update", cartHandler.Update)
	cart.POST("/clear", cartHandler.Clear)
	cart.POST("/select", cartHandler.ToggleSelect)
	cart.POST("/select-all", cartHandler.SelectAll)
	cart.POST("/deselect-all", cartHandler.DeselectAll)
	e.POST("/api/checkout", cartHandler.Checkout, optionalSession)

	// --- Payment routes ---
	payments := e.Group("/api/payments", requireSession)
	payments.POST("/gcash/checkout", paymentHandler.CreateGCashCheckout)
	payments.POST("/orders/:id/verify", paymentHandler.Verify)
	payments.POST("/orders/:id/wait", paymentHandler.Await)
	payments.POST("/orders/:id/confirm", paymentHandler.Confirm)

	// --- Catalog and order pass-throughs ---
	products := e.Group("/api/inventory/products", optionalSession)
	products.Any("", inventoryProxy.Forward)
	products.Any("/*", inventoryProxy.Forward)

	orders := e.Group("/api/inventory/orders", requireSession)
	orders.Any("", inventoryProxy.Forward)
	orders.Any("/*", inventoryProxy.Forward)

	// --- Back-office pass-throughs (admin console) ---
	admin := middleware.RBAC(domain.RoleAdmin)
	for _, resource := range []string{"suppliers", "ingredients", "ingredient-suppliers", "resupply-orders", "sales"} {
		g := e.Group("/api/inventory/"+resource, requireSession, admin)
		g.Any("", inventoryProxy.Forward)
		g.Any("/*", inventoryProxy.Forward)
	}
	users := e.Group("/api/accounts/users", requireSession, admin)
	users.Any("", accountsProxy.Forward)
	users.Any("/*", accountsProxy.Forward)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	readiness := handler.NewReadinessHandler(rdb, httpClient, map[string]string{
		"accounts":  cfg.Accounts.BaseURL + "/",
		"inventory": cfg.Inventory.BaseURL + "/",
	})
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readiness.Readiness)

	return e, nil
}

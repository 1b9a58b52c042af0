package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/platform/auth"
	"github.com/aroma-notes/api/internal/platform/idempotency"
	"github.com/aroma-notes/api/internal/platform/observability"
	"github.com/aroma-notes/api/internal/services"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Logger   *zap.Logger
	Verifier auth.TokenVerifier

	Cart     services.CartService
	Checkout services.CheckoutService
	Orders   services.OrderService
	Feed     services.OrderFeed
	Catalog  services.CatalogService
	Content  services.ContentService
	Settings services.SettingsService

	IdempotencyStore idempotency.Store
	IdempotencyTTL   time.Duration

	AllowedOrigins []string
	Ready          func() bool
}

// NewRouter assembles the HTTP API.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLoggerMiddleware(deps.Logger))
	r.Use(observability.RecoveryMiddleware())
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(corsMiddleware(deps.AllowedOrigins))

	health := NewHealthHandlers(deps.Ready)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	cart := NewCartHandlers(deps.Cart)
	checkout := NewCheckoutHandlers(deps.Checkout)
	catalog := NewCatalogHandlers(deps.Catalog, deps.Content)
	settings := NewSettingsHandlers(deps.Settings)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.Get)
			r.Delete("/", cart.Clear)
			r.Post("/items", cart.AddItem)
			r.Patch("/items/{itemID}", cart.UpdateQuantity)
			r.Delete("/items/{itemID}", cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/quote", checkout.Quote)
			r.Post("/slip-uploads", checkout.SlipUpload)
			r.With(idempotency.Middleware(deps.IdempotencyStore, deps.IdempotencyTTL)).
				Post("/orders", checkout.Submit)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalog.List)
			r.Get("/{productID}", catalog.Get)
		})
		r.Route("/content/products", func(r chi.Router) {
			r.Get("/", catalog.ContentList)
			r.Get("/{slug}", catalog.ContentGet)
		})

		r.Get("/settings", settings.Get)
	})

	orders := NewOrderHandlers(deps.Orders, deps.Feed)
	adminCatalog := NewAdminCatalogHandlers(deps.Catalog)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireFirebaseAuth(deps.Verifier, auth.RoleAdmin))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.List)
			r.Get("/metrics", orders.Metrics)
			r.Get("/stream", orders.Stream)
			r.Get("/by-number/{orderNumber}", orders.GetByNumber)
			r.Get("/{orderID}", orders.Get)
			r.Patch("/{orderID}/status", orders.UpdateStatus)
		})

		r.Get("/customers", orders.Customers)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", adminCatalog.Create)
			r.Put("/{productID}", adminCatalog.Update)
			r.Delete("/{productID}", adminCatalog.Delete)
			r.Post("/{productID}/images", adminCatalog.ImageUpload)
		})

		r.Put("/settings", settings.Update)
	})

	return r
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				_, ok := allowed[origin]
				if wildcard || ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, "+SessionHeader)
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

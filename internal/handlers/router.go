package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowerdream/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	flowers       RouteRegistrar
	bouquets      RouteRegistrar
	backups       RouteRegistrar
	orders        RouteRegistrar
	notifications RouteRegistrar
	uploads       RouteRegistrar
	imports       RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix = "/api"
	defaultTimeout   = 60 * time.Second
)

// NewRouter constructs the chi router with shared middleware and the expected route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers(nil)
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)

	r.Route(cfg.basePath, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar) {
			if registrar == nil {
				return
			}
			api.Route(path, registrar)
		}

		mount("/flowers", cfg.flowers)
		mount("/bouquets", cfg.bouquets)
		mount("/backups", cfg.backups)
		mount("/orders", cfg.orders)
		mount("/notifications", cfg.notifications)
		mount("/uploads", cfg.uploads)
		mount("/imports", cfg.imports)
	})

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handler used for the /healthz endpoint.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithFlowerRoutes configures the registrar for the flowers collection endpoints.
func WithFlowerRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.flowers = reg
	}
}

// WithBouquetRoutes configures the registrar for the bouquets collection endpoints.
func WithBouquetRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.bouquets = reg
	}
}

// WithBackupRoutes configures the registrar for the backups endpoints.
func WithBackupRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.backups = reg
	}
}

// WithOrderRoutes configures the registrar for the order endpoints.
func WithOrderRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.orders = reg
	}
}

// WithNotificationRoutes configures the registrar for the notification endpoints.
func WithNotificationRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.notifications = reg
	}
}

// WithUploadRoutes configures the registrar for the upload endpoints.
func WithUploadRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.uploads = reg
	}
}

// WithImportRoutes configures the registrar for the CSV import endpoints.
func WithImportRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.imports = reg
	}
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/health"
	"github.com/utafrali/catalog-admin/pkg/middleware"
)

// DefaultServiceName labels spans and metrics when RouterConfig leaves it empty.
const DefaultServiceName = "catalog-admin"

// staticMaxAge is the cache lifetime of embedded assets, in seconds.
const staticMaxAge = 86400

// RouterConfig holds the router settings that come from configuration.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
}

// NewRouter creates a chi router with the console pages and the product API
// registered.
func NewRouter(
	productService service.ProductService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Tracing(cfg.ServiceName, "/health/", "/metrics", "/placeholder.svg"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Product API endpoints
	productHandler := NewProductHandler(productService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)
		r.Post("/", productHandler.CreateProduct)
		r.Put("/{id}", productHandler.UpdateProduct)
		r.Delete("/{id}", productHandler.DeleteProduct)
	})

	// Console pages
	pageHandler := NewPageHandler(productService, logger)

	r.With(middleware.CacheControl(staticMaxAge)).Get("/placeholder.svg", servePlaceholder)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/", pageHandler.ListPage)
		r.Get("/new", pageHandler.NewPage)
		r.Post("/new", pageHandler.CreateSubmit)
		r.Get("/update/{id}", pageHandler.EditPage)
		r.Post("/update/{id}", pageHandler.UpdateSubmit)
		r.Post("/update/{id}/delete", pageHandler.DeleteSubmit)
	})

	return r
}

package router

import (
	"net/http"

	"github.com/evyataryagoni/geodbsync/internal/handler"
	"github.com/evyataryagoni/geodbsync/internal/limiter"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
	custommiddleware "github.com/evyataryagoni/geodbsync/internal/middleware"
	v1 "github.com/evyataryagoni/geodbsync/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies bundles what the router wires into routes and middleware
type Dependencies struct {
	Geo     *handler.GeoHandler
	Sync    *handler.SyncHandler
	Limiter limiter.Limiter
	Metrics *metrics.Metrics

	// Gatherer backs /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
	Logger   *logger.Logger
}

// SetupRouter creates the chi router with all middleware and routes
func SetupRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// RequestID first so every later middleware can log it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(deps.Metrics))

	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(deps.Limiter, deps.Metrics))
		r.Mount("/v1", v1.SetupRoutes(deps.Geo, deps.Sync))
	})

	r.Get("/health", healthCheckHandler)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthCheckHandler reports process liveness only. Database state is on /v1/status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

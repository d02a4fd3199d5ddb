package v1

import (
	"github.com/evyataryagoni/geodbsync/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes configures all v1 API routes
func SetupRoutes(geo *handler.GeoHandler, sync *handler.SyncHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/lookup?ip=<ip>
	r.Get("/lookup", geo.Lookup)
	// GET /v1/countries/IN
	r.Get("/countries/{code}", geo.Country)

	r.Get("/status", sync.Status)

	// one manual cycle at a time; concurrent callers get 429
	r.With(middleware.Throttle(1)).Post("/admin/refresh", sync.Refresh)

	return r
}

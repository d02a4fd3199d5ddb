package handler

import (
	"errors"
	"net/http"

	"github.com/evyataryagoni/geodbsync/internal/service"
	"github.com/evyataryagoni/geodbsync/internal/store"
	"github.com/go-chi/chi/v5"
)

// GeoHandler serves IP and country lookups. HTTP concerns only; validation
// and data access live in the service.
type GeoHandler struct {
	service *service.GeoService
}

// NewGeoHandler creates a new lookup handler with the given service
func NewGeoHandler(svc *service.GeoService) *GeoHandler {
	return &GeoHandler{service: svc}
}

// Lookup handles GET /v1/lookup?ip=<ip>
func (h *GeoHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		respondError(w, http.StatusBadRequest, "Missing 'ip' query parameter")
		return
	}

	location, err := h.service.LookupIP(ip)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIP):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrIPNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUnavailable):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, location)
}

// Country handles GET /v1/countries/{code}
func (h *GeoHandler) Country(w http.ResponseWriter, r *http.Request) {
	country, err := h.service.LookupCountry(chi.URLParam(r, "code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCountryCode):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrCountryNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, country)
}

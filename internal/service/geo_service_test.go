package service

import (
	"errors"
	"testing"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
	"github.com/evyataryagoni/geodbsync/internal/models"
	"github.com/evyataryagoni/geodbsync/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestService(geo GeoLookup, s store.Store) *GeoService {
	return NewGeoService(geo, s, nil, logger.Nop())
}

// TestGeoService_LookupIP_Success tests city, ASN and enrichment together
func TestGeoService_LookupIP_Success(t *testing.T) {
	tests := []struct {
		name            string
		ip              string
		expectedCountry string
		expectedCity    string
		expectedASN     uint
		expectedDisplay string
	}{
		{"Google DNS", "8.8.8.8", "US", "Mountain View", 15169, "United States"},
		{"Cloudflare DNS", "1.1.1.1", "AU", "", 13335, "Australia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			svc := newTestService(NewMockGeoLookup(), mockStore)

			result, err := svc.LookupIP(tt.ip)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if result.CountryCode != tt.expectedCountry {
				t.Errorf("expected country %s, got %s", tt.expectedCountry, result.CountryCode)
			}
			if result.City != tt.expectedCity {
				t.Errorf("expected city %q, got %q", tt.expectedCity, result.City)
			}
			if result.ASN != tt.expectedASN {
				t.Errorf("expected ASN %d, got %d", tt.expectedASN, result.ASN)
			}
			if result.Country == nil || result.Country.DisplayName != tt.expectedDisplay {
				t.Errorf("expected enrichment %s, got %+v", tt.expectedDisplay, result.Country)
			}
			if len(mockStore.FindByCodeCalls) != 1 || mockStore.FindByCodeCalls[0] != tt.expectedCountry {
				t.Errorf("unexpected store calls %v", mockStore.FindByCodeCalls)
			}
		})
	}
}

// TestGeoService_LookupIP_InvalidIP tests validation errors
func TestGeoService_LookupIP_InvalidIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{"empty string", ""},
		{"invalid format", "not-an-ip"},
		{"incomplete IPv4", "192.168.1"},
		{"too many octets", "192.168.1.1.1"},
		{"out of range", "300.300.300.300"},
		{"just dots", "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			svc := newTestService(NewMockGeoLookup(), mockStore)

			result, err := svc.LookupIP(tt.ip)
			if !errors.Is(err, ErrInvalidIP) {
				t.Errorf("expected ErrInvalidIP, got %v", err)
			}
			if result != nil {
				t.Error("expected nil result")
			}
			if len(mockStore.FindByCodeCalls) != 0 {
				t.Error("store should not be called for invalid input")
			}
		})
	}
}

// TestGeoService_LookupIP_FallsBackToCountry tests a deployment without the city database
func TestGeoService_LookupIP_FallsBackToCountry(t *testing.T) {
	geo := NewMockGeoLookup()
	geo.Kinds = map[geodb.Kind]bool{geodb.KindCountry: true}

	result, err := newTestService(geo, store.NewMockStore()).LookupIP("8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CountryCode != "US" || result.City != "" {
		t.Errorf("expected country-only result, got %+v", result)
	}
	if result.ASN != 0 {
		t.Errorf("expected no ASN when the ASN database is disabled, got %d", result.ASN)
	}
}

// TestGeoService_LookupIP_NotFound tests an address absent from every database
func TestGeoService_LookupIP_NotFound(t *testing.T) {
	svc := newTestService(NewMockGeoLookup(), store.NewMockStore())

	if _, err := svc.LookupIP("192.168.1.1"); !errors.Is(err, ErrIPNotFound) {
		t.Errorf("expected ErrIPNotFound, got %v", err)
	}
}

// TestGeoService_LookupIP_NotLoaded tests lookups before the first commit
func TestGeoService_LookupIP_NotLoaded(t *testing.T) {
	geo := NewMockGeoLookup()
	geo.Kinds = map[geodb.Kind]bool{}

	if _, err := newTestService(geo, store.NewMockStore()).LookupIP("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

// TestGeoService_LookupIP_DatabaseError tests reader failures
func TestGeoService_LookupIP_DatabaseError(t *testing.T) {
	geo := NewMockGeoLookup()
	geo.Err = errors.New("invalid mmdb")

	_, err := newTestService(geo, store.NewMockStore()).LookupIP("8.8.8.8")
	if err == nil || errors.Is(err, ErrIPNotFound) {
		t.Errorf("expected database error, got %v", err)
	}
}

// TestGeoService_LookupIP_EnrichmentMiss tests that store misses do not fail the lookup
func TestGeoService_LookupIP_EnrichmentMiss(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewGeoService(NewMockGeoLookup(), store.NewEmptyMockStore(), m, logger.Nop())

	result, err := svc.LookupIP("8.8.8.8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Country != nil {
		t.Error("expected no enrichment from an empty store")
	}
	if got := testutil.ToFloat64(m.CountryStoreQueries.WithLabelValues("not_found")); got != 1 {
		t.Errorf("expected one store miss, got %v", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("ip", "success")); got != 1 {
		t.Errorf("expected one successful lookup, got %v", got)
	}
}

// TestGeoService_LookupCountry tests code normalization and validation
func TestGeoService_LookupCountry(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    string
		wantErr error
	}{
		{"uppercase", "US", "USA", nil},
		{"lowercase", "au", "AUS", nil},
		{"padded", " us ", "USA", nil},
		{"unknown but valid", "FR", "", store.ErrCountryNotFound},
		{"user-assigned code", "xk", "XKX", nil},
		{"unassigned code", "XX", "", store.ErrCountryNotFound},
		{"digits", "12", "", ErrInvalidCountryCode},
		{"too long", "USA", "", ErrInvalidCountryCode},
		{"empty", "", "", ErrInvalidCountryCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := store.NewMockStore()
			mockStore.Data["XK"] = &models.Country{ISO2: "XK", ISO3: "XKX", Name: "Kosovo"}
			svc := newTestService(NewMockGeoLookup(), mockStore)

			country, err := svc.LookupCountry(tt.code)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if country.ISO3 != tt.want {
				t.Errorf("expected %s, got %s", tt.want, country.ISO3)
			}
		})
	}
}

// TestGeoService_Close tests that Close closes the store
func TestGeoService_Close(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := newTestService(NewMockGeoLookup(), mockStore)

	if err := svc.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mockStore.CloseCalled {
		t.Error("expected store Close to be called")
	}
}

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evyataryagoni/geodbsync/internal/countries"
)

func writeCountries(t *testing.T, path string, rows ...[]string) {
	t.Helper()
	if err := countries.WriteSampleCSV(path, rows...); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

// TestCSVStore_LoadValidFile tests loading a valid CSV file
func TestCSVStore_LoadValidFile(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow(), countries.CountryRow("AU", "AUS", "Australia"))

	store, err := NewCSVStore(csvPath)
	if err != nil {
		t.Fatalf("failed to create CSV store: %v", err)
	}
	defer store.Close()

	if store.Len() != 2 {
		t.Errorf("expected 2 records, got %d", store.Len())
	}

	country, err := store.FindByCode("IN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if country.DisplayName != "India" {
		t.Errorf("expected 'India', got '%s'", country.DisplayName)
	}
	if country.CurrencyCode != "INR" {
		t.Errorf("expected 'INR', got '%s'", country.CurrencyCode)
	}
}

// TestCSVStore_FindByCode_NotFound tests an unknown code
func TestCSVStore_FindByCode_NotFound(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow())

	store, err := NewCSVStore(csvPath)
	if err != nil {
		t.Fatalf("failed to create CSV store: %v", err)
	}

	country, err := store.FindByCode("ZZ")
	if !errors.Is(err, ErrCountryNotFound) {
		t.Errorf("expected ErrCountryNotFound, got %v", err)
	}
	if country != nil {
		t.Error("expected nil country")
	}
}

// TestCSVStore_MissingFile tests startup before the CSV has been downloaded
func TestCSVStore_MissingFile(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if store == nil {
		t.Fatal("expected a usable empty store")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty table, got %d", store.Len())
	}
	if _, err := store.FindByCode("IN"); !errors.Is(err, ErrCountryNotFound) {
		t.Errorf("expected ErrCountryNotFound, got %v", err)
	}
}

// TestCSVStore_Reload tests that reload swaps the whole table
func TestCSVStore_Reload(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow())

	store, err := NewCSVStore(csvPath)
	if err != nil {
		t.Fatalf("failed to create CSV store: %v", err)
	}

	writeCountries(t, csvPath, countries.CountryRow("FR", "FRA", "France"))
	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	if _, err := store.FindByCode("IN"); !errors.Is(err, ErrCountryNotFound) {
		t.Error("expected IN to be gone after reload")
	}
	if c, err := store.FindByCode("FR"); err != nil || c.Name != "France" {
		t.Errorf("expected France after reload, got %v, %v", c, err)
	}
}

// TestCSVStore_Reload_FailureKeepsTable tests that a bad file does not clear data
func TestCSVStore_Reload_FailureKeepsTable(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow())

	store, err := NewCSVStore(csvPath)
	if err != nil {
		t.Fatalf("failed to create CSV store: %v", err)
	}

	if err := os.WriteFile(csvPath, []byte("header\nshort,row\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Error("expected reload error for malformed file")
	}
	if _, err := store.FindByCode("IN"); err != nil {
		t.Errorf("expected previous table to survive, got %v", err)
	}
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/evyataryagoni/geodbsync/internal/countries"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, csvPath string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(mr.Addr(), "", 0, csvPath)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

// TestRedisStore_ConnectionFailure tests connection errors
func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore("invalid:9999", "", 0, "")
	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

// TestRedisStore_SharedClient tests that a store built on a shared client
// serves lookups and leaves the client open on Close
func TestRedisStore_SharedClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStoreFromClient(client, csvPath)
	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.FindByCode("IN"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("expected shared client to stay open, got %v", err)
	}
}

// TestRedisStore_LoadAndFind tests loading the CSV and reading it back
func TestRedisStore_LoadAndFind(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow(), countries.CountryRow("AU", "AUS", "Australia"))

	store, mr := newTestRedisStore(t, csvPath)

	empty, err := store.IsEmpty()
	if err != nil || !empty {
		t.Fatalf("expected empty store, got %v, %v", empty, err)
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	country, err := store.FindByCode("IN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if country.Name != "Republic of India" {
		t.Errorf("expected 'Republic of India', got '%s'", country.Name)
	}
	if country.ISONumeric == nil || *country.ISONumeric != 356 {
		t.Errorf("expected numeric code 356, got %v", country.ISONumeric)
	}

	if mr.Exists(stagingKey) {
		t.Error("expected staging key to be renamed away")
	}
	fields, err := mr.HKeys(countriesKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("expected 2 hash fields, got %d", len(fields))
	}
}

// TestRedisStore_FindByCode_NotFound tests an unknown code
func TestRedisStore_FindByCode_NotFound(t *testing.T) {
	store, _ := newTestRedisStore(t, "")

	country, err := store.FindByCode("ZZ")
	if !errors.Is(err, ErrCountryNotFound) {
		t.Errorf("expected ErrCountryNotFound, got %v", err)
	}
	if country != nil {
		t.Error("expected nil country")
	}
}

// TestRedisStore_Reload_ReplacesTable tests that removed countries disappear
func TestRedisStore_Reload_ReplacesTable(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "countries-iso.csv")
	writeCountries(t, csvPath, countries.IndiaRow())
	store, _ := newTestRedisStore(t, csvPath)

	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writeCountries(t, csvPath, countries.CountryRow("FR", "FRA", "France"))
	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.FindByCode("IN"); !errors.Is(err, ErrCountryNotFound) {
		t.Errorf("expected IN to be removed, got %v", err)
	}
	if _, err := store.FindByCode("FR"); err != nil {
		t.Errorf("expected FR to be present, got %v", err)
	}
}

// TestRedisStore_LoadFromCSV_Errors tests load failures leave the hash alone
func TestRedisStore_LoadFromCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	writeCountries(t, good, countries.IndiaRow())
	headerOnly := filepath.Join(dir, "empty.csv")
	writeCountries(t, headerOnly)

	store, _ := newTestRedisStore(t, good)
	if err := store.Reload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.csv"), headerOnly} {
		if err := store.LoadFromCSV(path); err == nil {
			t.Errorf("expected error loading %s", path)
		}
	}
	if _, err := store.FindByCode("IN"); err != nil {
		t.Errorf("expected previous table to survive, got %v", err)
	}
}

// TestRedisStore_FindByCode_CorruptValue tests undecodable hash values
func TestRedisStore_FindByCode_CorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t, "")
	mr.HSet(countriesKey, "IN", "{not json")

	if _, err := store.FindByCode("IN"); err == nil || errors.Is(err, ErrCountryNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
}

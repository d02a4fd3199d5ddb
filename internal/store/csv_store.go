package store

import (
	"fmt"
	"sync/atomic"

	"github.com/evyataryagoni/geodbsync/internal/countries"
	"github.com/evyataryagoni/geodbsync/internal/models"
)

// CSVStore serves countries from an in-memory table built from the CSV.
// The table is never mutated; Reload swaps in a freshly parsed one.
type CSVStore struct {
	path string
	data atomic.Pointer[map[string]*models.Country]
}

// NewCSVStore creates a store over the CSV at filePath and loads it.
// A missing file is not fatal: the table starts empty until Reload succeeds,
// which covers the first start before any download has been committed.
func NewCSVStore(filePath string) (*CSVStore, error) {
	s := &CSVStore{path: filePath}
	empty := map[string]*models.Country{}
	s.data.Store(&empty)

	if err := s.Reload(); err != nil {
		return s, err
	}
	return s, nil
}

// Reload re-reads the CSV and replaces the whole table
func (s *CSVStore) Reload() error {
	table, err := countries.Load(s.path)
	if err != nil {
		return fmt.Errorf("failed to load countries: %w", err)
	}
	s.data.Store(&table)
	return nil
}

// FindByCode looks up a country in the current table
func (s *CSVStore) FindByCode(code string) (*models.Country, error) {
	country, exists := (*s.data.Load())[code]
	if !exists {
		return nil, ErrCountryNotFound
	}
	return country, nil
}

// Len returns the number of countries in the current table
func (s *CSVStore) Len() int {
	return len(*s.data.Load())
}

// Close is a no-op; all data is in memory
func (s *CSVStore) Close() error {
	return nil
}

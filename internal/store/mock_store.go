package store

import (
	"github.com/evyataryagoni/geodbsync/internal/models"
)

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
type MockStore struct {
	// Data holds the mock data (ISO2 code -> country)
	Data map[string]*models.Country

	// Track method calls for verification in tests
	FindByCodeCalls []string
	ReloadCalls     int
	CloseCalled     bool

	// Control behavior for error scenarios
	FindByCodeError error
	ReloadError     error
	CloseError      error
}

// NewMockStore creates a mock store with sample test data
func NewMockStore() *MockStore {
	return &MockStore{
		Data: map[string]*models.Country{
			"US": {
				ISO2:          "US",
				ISO3:          "USA",
				Name:          "United States of America",
				DisplayName:   "United States",
				DialCodes:     []string{"1"},
				CurrencyCode:  "USD",
				ContinentCode: "NA",
			},
			"AU": {
				ISO2:          "AU",
				ISO3:          "AUS",
				Name:          "Australia",
				DisplayName:   "Australia",
				DialCodes:     []string{"61"},
				CurrencyCode:  "AUD",
				ContinentCode: "OC",
			},
		},
		FindByCodeCalls: []string{},
	}
}

// NewEmptyMockStore creates a mock store with no data
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		Data:            map[string]*models.Country{},
		FindByCodeCalls: []string{},
	}
}

// FindByCode implements the Store interface
func (m *MockStore) FindByCode(code string) (*models.Country, error) {
	m.FindByCodeCalls = append(m.FindByCodeCalls, code)

	if m.FindByCodeError != nil {
		return nil, m.FindByCodeError
	}

	country, exists := m.Data[code]
	if !exists {
		return nil, ErrCountryNotFound
	}

	return country, nil
}

// Reload implements the Store interface
func (m *MockStore) Reload() error {
	m.ReloadCalls++
	return m.ReloadError
}

// Close implements the Store interface
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}

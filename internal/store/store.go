package store

import (
	"errors"

	"github.com/evyataryagoni/geodbsync/internal/models"
)

// ErrCountryNotFound is returned when no record exists for a code
var ErrCountryNotFound = errors.New("country not found")

// Store defines the interface for country metadata lookups
// Allows multiple implementations (CSV, MySQL, Redis) and easy testing with mocks
type Store interface {
	// FindByCode looks up a country by its ISO2 code
	FindByCode(code string) (*models.Country, error)

	// Reload replaces the store's contents from the committed country CSV
	Reload() error

	// Close cleans up resources (database connections, file handles, etc.)
	Close() error
}

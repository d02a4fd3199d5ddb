package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/countries"
	"github.com/evyataryagoni/geodbsync/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CountryModel is the GORM model for the countries table.
// List-valued fields are stored comma joined, as they arrive in the CSV.
type CountryModel struct {
	ISO2          string `gorm:"column:iso2;primaryKey;size:2"`
	ISO3          string `gorm:"column:iso3;size:3"`
	ISONumeric    *int   `gorm:"column:iso_numeric"`
	Name          string `gorm:"column:name"`
	DisplayName   string `gorm:"column:display_name"`
	DialCodes     string `gorm:"column:dial_codes"`
	CurrencyName  string `gorm:"column:currency_name"`
	CurrencyCode  string `gorm:"column:currency_code"`
	Region        string `gorm:"column:region"`
	Capital       string `gorm:"column:capital"`
	ContinentCode string `gorm:"column:continent_code"`
	TLD           string `gorm:"column:tld"`
	LanguageCodes string `gorm:"column:language_codes"`
	GeonameID     *int64 `gorm:"column:geoname_id"`
}

// TableName specifies the table name for GORM
func (CountryModel) TableName() string {
	return "countries"
}

func toModel(c *models.Country) CountryModel {
	return CountryModel{
		ISO2:          c.ISO2,
		ISO3:          c.ISO3,
		ISONumeric:    c.ISONumeric,
		Name:          c.Name,
		DisplayName:   c.DisplayName,
		DialCodes:     strings.Join(c.DialCodes, ","),
		CurrencyName:  c.CurrencyName,
		CurrencyCode:  c.CurrencyCode,
		Region:        c.Region,
		Capital:       c.Capital,
		ContinentCode: c.ContinentCode,
		TLD:           c.TLD,
		LanguageCodes: strings.Join(c.LanguageCodes, ","),
		GeonameID:     c.GeonameID,
	}
}

func (m CountryModel) toCountry() *models.Country {
	return &models.Country{
		ISO2:          m.ISO2,
		ISO3:          m.ISO3,
		ISONumeric:    m.ISONumeric,
		Name:          m.Name,
		DisplayName:   m.DisplayName,
		DialCodes:     strings.Split(m.DialCodes, ","),
		CurrencyName:  m.CurrencyName,
		CurrencyCode:  m.CurrencyCode,
		Region:        m.Region,
		Capital:       m.Capital,
		ContinentCode: m.ContinentCode,
		TLD:           m.TLD,
		LanguageCodes: strings.Split(m.LanguageCodes, ","),
		GeonameID:     m.GeonameID,
	}
}

// MySQLStore implements Store using MySQL with GORM
type MySQLStore struct {
	db      *gorm.DB
	csvPath string
}

// OpenMySQL opens a pooled GORM connection. Shared by the country store
// and the cycle history observer.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}
	return db, nil
}

// NewMySQLStore creates a country store over an open GORM connection
func NewMySQLStore(db *gorm.DB, csvPath string) *MySQLStore {
	return &MySQLStore{db: db, csvPath: csvPath}
}

// Migrate creates or updates the countries table
func (s *MySQLStore) Migrate() error {
	if err := s.db.AutoMigrate(&CountryModel{}); err != nil {
		return fmt.Errorf("failed to migrate countries table: %w", err)
	}
	return nil
}

// FindByCode looks up a country by primary key
func (s *MySQLStore) FindByCode(code string) (*models.Country, error) {
	var record CountryModel

	result := s.db.Where("iso2 = ?", code).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCountryNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}

	return record.toCountry(), nil
}

// Reload upserts the committed CSV
func (s *MySQLStore) Reload() error {
	return s.LoadFromCSV(s.csvPath)
}

// LoadFromCSV upserts every row of csvPath and removes countries that are no
// longer listed, in one transaction.
func (s *MySQLStore) LoadFromCSV(csvPath string) error {
	table, err := countries.Load(csvPath)
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	if len(table) == 0 {
		return fmt.Errorf("country CSV %s has no rows", csvPath)
	}

	rows := make([]CountryModel, 0, len(table))
	codes := make([]string, 0, len(table))
	for code, c := range table {
		rows = append(rows, toModel(c))
		codes = append(codes, code)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, 100).Error; err != nil {
			return fmt.Errorf("failed to upsert countries: %w", err)
		}
		if err := tx.Where("iso2 NOT IN ?", codes).Delete(&CountryModel{}).Error; err != nil {
			return fmt.Errorf("failed to prune countries: %w", err)
		}
		return nil
	})
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Package countries parses the country-codes metadata CSV into Country records.
//
// The file is read by column position, not by header name: the positions below
// are the layout published by the datasets/country-codes project.
package countries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/evyataryagoni/geodbsync/internal/models"
)

const (
	colDialCodes     = 1
	colISO3          = 2
	colISONumeric    = 5
	colISO2          = 9
	colCurrencyName  = 18
	colCurrencyCode  = 25
	colName          = 41
	colRegion        = 44
	colCapital       = 49
	colContinentCode = 50
	colTLD           = 51
	colLanguageCodes = 52
	colGeonameID     = 53
	colDisplayName   = 54
)

// ErrMalformedRow is returned when a row lacks a required column
var ErrMalformedRow = errors.New("malformed country row")

// Load reads the CSV at path and returns the records keyed by ISO2 code
func Load(path string) (map[string]*models.Country, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open country CSV: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes country rows from r. The first row is a header and is skipped.
// Rows sharing an ISO2 code overwrite earlier ones.
func Parse(r io.Reader) (map[string]*models.Country, error) {
	reader := csv.NewReader(r)
	// Upstream occasionally ships rows with trailing columns missing; the
	// per-cell check below reports those with a row number instead.
	reader.FieldsPerRecord = -1

	countries := make(map[string]*models.Country)

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read country CSV: %w", err)
		}
		if line == 1 {
			continue
		}

		country, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		countries[country.ISO2] = country
	}

	return countries, nil
}

func parseRecord(record []string) (*models.Country, error) {
	cells := row(record)
	c := &models.Country{
		ISONumeric: cells.optInt(colISONumeric),
		GeonameID:  cells.optInt64(colGeonameID),
	}

	var err error
	fields := []struct {
		col int
		dst *string
	}{
		{colISO3, &c.ISO3},
		{colISO2, &c.ISO2},
		{colCurrencyName, &c.CurrencyName},
		{colCurrencyCode, &c.CurrencyCode},
		{colName, &c.Name},
		{colRegion, &c.Region},
		{colCapital, &c.Capital},
		{colContinentCode, &c.ContinentCode},
		{colTLD, &c.TLD},
		{colDisplayName, &c.DisplayName},
	}
	for _, f := range fields {
		if *f.dst, err = cells.str(f.col); err != nil {
			return nil, err
		}
	}

	if c.DialCodes, err = cells.list(colDialCodes); err != nil {
		return nil, err
	}
	if c.LanguageCodes, err = cells.list(colLanguageCodes); err != nil {
		return nil, err
	}

	return c, nil
}

type row []string

func (r row) str(col int) (string, error) {
	if col >= len(r) {
		return "", fmt.Errorf("%w: missing column %d", ErrMalformedRow, col)
	}
	return r[col], nil
}

// list splits a comma separated cell. An empty cell yields a single empty
// element, matching a plain split.
func (r row) list(col int) ([]string, error) {
	s, err := r.str(col)
	if err != nil {
		return nil, err
	}
	return strings.Split(s, ","), nil
}

func (r row) optInt(col int) *int {
	if col >= len(r) {
		return nil
	}
	v, err := strconv.Atoi(r[col])
	if err != nil {
		return nil
	}
	return &v
}

func (r row) optInt64(col int) *int64 {
	if col >= len(r) {
		return nil
	}
	v, err := strconv.ParseInt(r[col], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

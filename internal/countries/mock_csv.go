package countries

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
)

// columnCount is the width of the upstream country-codes file
const columnCount = 56

// SampleRow builds a full-width CSV row with the given cells set by position.
// Test helper shared by the store and geodb packages.
func SampleRow(cells map[int]string) []string {
	out := make([]string, columnCount)
	for col, v := range cells {
		out[col] = v
	}
	return out
}

// IndiaRow is the canonical fixture row used across tests
func IndiaRow() []string {
	return SampleRow(map[int]string{
		colDialCodes:     "91",
		colISO3:          "IND",
		colISONumeric:    "356",
		colISO2:          "IN",
		colCurrencyName:  "Rupee",
		colCurrencyCode:  "INR",
		colName:          "Republic of India",
		colRegion:        "Asia",
		colCapital:       "New Delhi",
		colContinentCode: "AS",
		colTLD:           ".in",
		colLanguageCodes: "en-IN,hi,bn",
		colGeonameID:     "1269750",
		colDisplayName:   "India",
	})
}

// EncodeSampleCSV encodes a header followed by rows
func EncodeSampleCSV(rows ...[]string) ([]byte, error) {
	header := make([]string, columnCount)
	for i := range header {
		header[i] = "col"
	}

	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(append([][]string{header}, rows...)); err != nil {
		return nil, fmt.Errorf("encode sample csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SampleCSV is EncodeSampleCSV for fixtures; it panics on encoding errors
func SampleCSV(rows ...[]string) []byte {
	data, err := EncodeSampleCSV(rows...)
	if err != nil {
		panic(err)
	}
	return data
}

// WriteSampleCSV writes EncodeSampleCSV(rows...) to path
func WriteSampleCSV(path string, rows ...[]string) error {
	data, err := EncodeSampleCSV(rows...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CountryRow builds a minimal row carrying only the codes and names
func CountryRow(iso2, iso3, name string) []string {
	return SampleRow(map[int]string{
		colISO2:        iso2,
		colISO3:        iso3,
		colName:        name,
		colDisplayName: name,
	})
}

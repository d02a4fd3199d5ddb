package models

import "time"

// Country is one row of the country metadata table, keyed by ISO2.
// Optional numeric fields are nil when the upstream cell did not parse.
type Country struct {
	DialCodes     []string `json:"dial_codes"`
	ISO3          string   `json:"iso3"`
	ISONumeric    *int     `json:"iso_numeric,omitempty"`
	ISO2          string   `json:"iso2"`
	CurrencyName  string   `json:"currency_name"`
	CurrencyCode  string   `json:"currency_code"`
	Name          string   `json:"name"`
	Region        string   `json:"region"`
	Capital       string   `json:"capital"`
	ContinentCode string   `json:"continent_code"`
	TLD           string   `json:"tld"`
	LanguageCodes []string `json:"language_codes"`
	GeonameID     *int64   `json:"geoname_id,omitempty"`
	DisplayName   string   `json:"display_name"`
}

// IPLocation is the merged answer of the country, city and ASN databases
// for a single address.
type IPLocation struct {
	IP            string   `json:"ip"`
	CountryCode   string   `json:"country_code"`
	CountryName   string   `json:"country_name"`
	ContinentCode string   `json:"continent_code,omitempty"`
	City          string   `json:"city,omitempty"`
	Latitude      float64  `json:"latitude,omitempty"`
	Longitude     float64  `json:"longitude,omitempty"`
	TimeZone      string   `json:"time_zone,omitempty"`
	ASN           uint     `json:"asn,omitempty"`
	ASOrg         string   `json:"as_org,omitempty"`
	Country       *Country `json:"country,omitempty"`
}

// SyncStatus describes the committed database snapshot and the last cycle
type SyncStatus struct {
	CommittedAt  *time.Time `json:"committed_at,omitempty"`
	LastOutcome  string     `json:"last_outcome,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	LastCycleAt  *time.Time `json:"last_cycle_at,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}

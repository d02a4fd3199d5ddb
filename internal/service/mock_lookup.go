package service

import (
	"net"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/oschwald/geoip2-golang"
)

// MockGeoLookup is a test double for GeoLookup keyed by IP string
type MockGeoLookup struct {
	Kinds     map[geodb.Kind]bool
	Cities    map[string]*geoip2.City
	Countries map[string]*geoip2.Country
	ASNs      map[string]*geoip2.ASN

	// Err is returned by every lookup when set
	Err error
}

// NewMockGeoLookup returns a lookup with every database loaded and records
// for 8.8.8.8 (US, Mountain View, AS15169) and 1.1.1.1 (AU, AS13335)
func NewMockGeoLookup() *MockGeoLookup {
	us := &geoip2.City{}
	us.Country.IsoCode = "US"
	us.Country.Names = map[string]string{"en": "United States"}
	us.Continent.Code = "NA"
	us.City.Names = map[string]string{"en": "Mountain View"}
	us.Location.Latitude = 37.386
	us.Location.Longitude = -122.0838
	us.Location.TimeZone = "America/Los_Angeles"

	au := &geoip2.City{}
	au.Country.IsoCode = "AU"
	au.Country.Names = map[string]string{"en": "Australia"}
	au.Continent.Code = "OC"

	usCountry := &geoip2.Country{}
	usCountry.Country.IsoCode = "US"
	usCountry.Country.Names = us.Country.Names
	usCountry.Continent.Code = "NA"

	return &MockGeoLookup{
		Kinds:     map[geodb.Kind]bool{geodb.KindASN: true, geodb.KindCity: true, geodb.KindCountry: true},
		Cities:    map[string]*geoip2.City{"8.8.8.8": us, "1.1.1.1": au},
		Countries: map[string]*geoip2.Country{"8.8.8.8": usCountry},
		ASNs: map[string]*geoip2.ASN{
			"8.8.8.8": {AutonomousSystemNumber: 15169, AutonomousSystemOrganization: "GOOGLE"},
			"1.1.1.1": {AutonomousSystemNumber: 13335, AutonomousSystemOrganization: "CLOUDFLARENET"},
		},
	}
}

func (m *MockGeoLookup) Loaded(kind geodb.Kind) bool { return m.Kinds[kind] }

func (m *MockGeoLookup) City(ip net.IP) (*geoip2.City, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if rec, ok := m.Cities[ip.String()]; ok {
		return rec, nil
	}
	return &geoip2.City{}, nil
}

func (m *MockGeoLookup) Country(ip net.IP) (*geoip2.Country, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if rec, ok := m.Countries[ip.String()]; ok {
		return rec, nil
	}
	return &geoip2.Country{}, nil
}

func (m *MockGeoLookup) ASN(ip net.IP) (*geoip2.ASN, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if rec, ok := m.ASNs[ip.String()]; ok {
		return rec, nil
	}
	return &geoip2.ASN{}, nil
}

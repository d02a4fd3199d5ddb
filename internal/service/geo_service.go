package service

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
	"github.com/evyataryagoni/geodbsync/internal/models"
	"github.com/evyataryagoni/geodbsync/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/oschwald/geoip2-golang"
)

var (
	// ErrInvalidIP is returned for input that is not an IPv4 or IPv6 address
	ErrInvalidIP = errors.New("invalid IP address format")

	// ErrInvalidCountryCode is returned for input that is not two letters
	ErrInvalidCountryCode = errors.New("invalid country code")

	// ErrIPNotFound is returned when the databases hold no record for an address
	ErrIPNotFound = errors.New("IP address not found")

	// ErrUnavailable is returned before any database has been committed
	ErrUnavailable = errors.New("geolocation databases not loaded yet")
)

// GeoLookup is the read side of the committed mmdb databases
type GeoLookup interface {
	Loaded(kind geodb.Kind) bool
	Country(ip net.IP) (*geoip2.Country, error)
	City(ip net.IP) (*geoip2.City, error)
	ASN(ip net.IP) (*geoip2.ASN, error)
}

// GeoService resolves addresses against the mmdb databases and enriches the
// result with country metadata.
type GeoService struct {
	geo       GeoLookup
	store     store.Store
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewGeoService creates the service. m and log may be nil.
func NewGeoService(geo GeoLookup, countries store.Store, m *metrics.Metrics, log *logger.Logger) *GeoService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &GeoService{
		geo:       geo,
		store:     countries,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("GeoService"),
	}
}

// LookupIP resolves ip with the city database when it is loaded, otherwise
// the country database, and adds ASN data when available.
func (s *GeoService) LookupIP(ip string) (*models.IPLocation, error) {
	if err := s.validator.Var(ip, "required,ip"); err != nil {
		s.logger.Warn().Str("ip", ip).Msg("Invalid IP address format")
		s.countError("validation")
		return nil, ErrInvalidIP
	}
	addr := net.ParseIP(ip)

	loc := &models.IPLocation{IP: ip}
	var err error
	switch {
	case s.geo.Loaded(geodb.KindCity):
		err = s.fromCity(addr, loc)
	case s.geo.Loaded(geodb.KindCountry):
		err = s.fromCountry(addr, loc)
	default:
		s.countError("unavailable")
		return nil, ErrUnavailable
	}
	if err != nil {
		s.logger.Error().Err(err).Str("ip", ip).Msg("Database error during IP lookup")
		s.countError("database")
		return nil, fmt.Errorf("lookup %s: %w", ip, err)
	}

	if s.geo.Loaded(geodb.KindASN) {
		if asn, err := s.geo.ASN(addr); err == nil {
			loc.ASN = asn.AutonomousSystemNumber
			loc.ASOrg = asn.AutonomousSystemOrganization
		} else {
			s.logger.Debug().Err(err).Str("ip", ip).Msg("ASN lookup failed")
		}
	}

	if loc.CountryCode == "" && loc.ASN == 0 {
		s.logger.Debug().Str("ip", ip).Msg("IP address not found")
		s.countLookup("ip", "not_found")
		return nil, ErrIPNotFound
	}

	if loc.CountryCode != "" {
		loc.Country = s.enrich(loc.CountryCode)
	}

	s.logger.Debug().
		Str("ip", ip).
		Str("country", loc.CountryCode).
		Str("city", loc.City).
		Msg("IP lookup successful")
	s.countLookup("ip", "success")
	return loc, nil
}

func (s *GeoService) fromCity(addr net.IP, loc *models.IPLocation) error {
	rec, err := s.geo.City(addr)
	if err != nil {
		return err
	}
	loc.CountryCode = rec.Country.IsoCode
	loc.CountryName = rec.Country.Names["en"]
	loc.ContinentCode = rec.Continent.Code
	loc.City = rec.City.Names["en"]
	loc.Latitude = rec.Location.Latitude
	loc.Longitude = rec.Location.Longitude
	loc.TimeZone = rec.Location.TimeZone
	return nil
}

func (s *GeoService) fromCountry(addr net.IP, loc *models.IPLocation) error {
	rec, err := s.geo.Country(addr)
	if err != nil {
		return err
	}
	loc.CountryCode = rec.Country.IsoCode
	loc.CountryName = rec.Country.Names["en"]
	loc.ContinentCode = rec.Continent.Code
	return nil
}

// enrich attaches country metadata; a miss is not an error
func (s *GeoService) enrich(code string) *models.Country {
	country, err := s.store.FindByCode(code)
	if err != nil {
		if !errors.Is(err, store.ErrCountryNotFound) {
			s.logger.Warn().Err(err).Str("code", code).Msg("Country store error during enrichment")
			s.countStore("error")
		} else {
			s.countStore("not_found")
		}
		return nil
	}
	s.countStore("success")
	return country
}

// LookupCountry returns the metadata row for an ISO2 code, case-insensitively
func (s *GeoService) LookupCountry(code string) (*models.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := s.validator.Var(code, "required,len=2,alpha"); err != nil {
		s.countError("validation")
		return nil, ErrInvalidCountryCode
	}

	country, err := s.store.FindByCode(code)
	if err != nil {
		if errors.Is(err, store.ErrCountryNotFound) {
			s.countStore("not_found")
			s.countLookup("country", "not_found")
			return nil, err
		}
		s.logger.Error().Err(err).Str("code", code).Msg("Country store error")
		s.countStore("error")
		s.countError("store")
		return nil, err
	}

	s.countStore("success")
	s.countLookup("country", "success")
	return country, nil
}

func (s *GeoService) countLookup(kind, result string) {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues(kind, result).Inc()
	}
}

func (s *GeoService) countError(errorType string) {
	if s.metrics != nil {
		s.metrics.LookupErrors.WithLabelValues(errorType).Inc()
	}
}

func (s *GeoService) countStore(status string) {
	if s.metrics != nil {
		s.metrics.CountryStoreQueries.WithLabelValues(status).Inc()
	}
}

// Close closes the underlying country store
func (s *GeoService) Close() error {
	return s.store.Close()
}

package geodb

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
)

// FixtureRecord is one network in a generated test database.
// Fields that do not apply to the database kind are ignored.
type FixtureRecord struct {
	Network     string // CIDR, e.g. "8.8.8.0/24"
	CountryCode string
	CountryName string
	Continent   string
	City        string
	Latitude    float64
	Longitude   float64
	ASN         uint32
	ASOrg       string
}

var fixtureTypes = map[Kind]string{
	KindASN:     "GeoLite2-ASN",
	KindCity:    "GeoLite2-City",
	KindCountry: "GeoLite2-Country",
}

// WriteFixtureDatabase builds a small mmdb of the given kind and moves it
// into place at path. Test helper shared by the geodb and observer packages.
func WriteFixtureDatabase(path string, kind Kind, records ...FixtureRecord) error {
	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: fixtureTypes[kind],
		RecordSize:   24,
	})
	if err != nil {
		return fmt.Errorf("create %s fixture: %w", kind, err)
	}

	for _, rec := range records {
		_, network, err := net.ParseCIDR(rec.Network)
		if err != nil {
			return fmt.Errorf("fixture network %q: %w", rec.Network, err)
		}
		if err := tree.Insert(network, rec.value(kind)); err != nil {
			return fmt.Errorf("insert %s: %w", rec.Network, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := tree.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s fixture: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (r FixtureRecord) value(kind Kind) mmdbtype.Map {
	if kind == KindASN {
		return mmdbtype.Map{
			"autonomous_system_number":       mmdbtype.Uint32(r.ASN),
			"autonomous_system_organization": mmdbtype.String(r.ASOrg),
		}
	}

	m := mmdbtype.Map{
		"country": mmdbtype.Map{
			"iso_code": mmdbtype.String(r.CountryCode),
			"names":    mmdbtype.Map{"en": mmdbtype.String(r.CountryName)},
		},
		"continent": mmdbtype.Map{"code": mmdbtype.String(r.Continent)},
	}
	if kind == KindCity {
		m["city"] = mmdbtype.Map{"names": mmdbtype.Map{"en": mmdbtype.String(r.City)}}
		m["location"] = mmdbtype.Map{
			"latitude":  mmdbtype.Float64(r.Latitude),
			"longitude": mmdbtype.Float64(r.Longitude),
		}
	}
	return m
}

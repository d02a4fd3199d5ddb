package geodb

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies one archived database edition
type Kind string

const (
	KindASN     Kind = "asn"
	KindCity    Kind = "cities"
	KindCountry Kind = "countries"
)

// ParseKind accepts the names used in configuration ("asn", "city", "country")
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asn":
		return KindASN, nil
	case "city", "cities":
		return KindCity, nil
	case "country", "countries":
		return KindCountry, nil
	default:
		return "", fmt.Errorf("unknown database kind: %q (supported: asn, city, country)", s)
	}
}

// artifact describes where an edition comes from and where it lands
type artifact struct {
	kind    Kind
	edition string // provider edition_id
	payload string // file inside the unpacked archive
	dest    string // file name under dbs/
}

// Order matters only for logs.
var artifacts = []artifact{
	{kind: KindASN, edition: "GeoLite2-ASN", payload: "GeoLite2-ASN.mmdb", dest: "asn.mmdb"},
	{kind: KindCity, edition: "GeoLite2-City", payload: "GeoLite2-City.mmdb", dest: "cities.mmdb"},
	{kind: KindCountry, edition: "GeoLite2-Country", payload: "GeoLite2-Country.mmdb", dest: "countries.mmdb"},
}

func artifactFor(kind Kind) (artifact, bool) {
	for _, a := range artifacts {
		if a.kind == kind {
			return a, true
		}
	}
	return artifact{}, false
}

const (
	markerFile     = "version"
	pendingFile    = "version.new"
	scratchDir     = "scratch"
	liveDir        = "dbs"
	countryCSVFile = "countries-iso.csv"
)

// Layout resolves the on-disk paths under the configured root
type Layout struct {
	Root string
}

func (l Layout) Marker() string        { return filepath.Join(l.Root, markerFile) }
func (l Layout) PendingMarker() string { return filepath.Join(l.Root, pendingFile) }
func (l Layout) Scratch() string       { return filepath.Join(l.Root, scratchDir) }
func (l Layout) LiveDir() string       { return filepath.Join(l.Root, liveDir) }
func (l Layout) CountryCSV() string    { return filepath.Join(l.Root, liveDir, countryCSVFile) }

// DBPath returns the committed location of a kind's mmdb file
func (l Layout) DBPath(kind Kind) string {
	a, ok := artifactFor(kind)
	if !ok {
		return ""
	}
	return filepath.Join(l.Root, liveDir, a.dest)
}

// Options configures every component of the update cycle
type Options struct {
	Root            string
	LicenseKey      string
	Frozen          bool
	Kinds           map[Kind]bool // ASN and City are optional; Country is always enabled
	RefreshInterval time.Duration
	DownloadURL     string
	CountryCSVURL   string
	ParallelFetch   bool
	HTTPClient      *http.Client
	Now             func() time.Time
}

// KindsFromNames builds the enabled-kind set from config strings
func KindsFromNames(names []string) (map[Kind]bool, error) {
	kinds := map[Kind]bool{KindCountry: true}
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds[k] = true
	}
	return kinds, nil
}

func (o Options) layout() Layout { return Layout{Root: o.Root} }

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) enabled(kind Kind) bool {
	return kind == KindCountry || o.Kinds[kind]
}

func (o Options) enabledArtifacts() []artifact {
	var out []artifact
	for _, a := range artifacts {
		if o.enabled(a.kind) {
			out = append(out, a)
		}
	}
	return out
}

package geodb

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Readers holds open handles on the committed mmdb files. Handles are
// swapped as a set by Reload after a successful update.
type Readers struct {
	layout Layout
	kinds  map[Kind]bool

	mu      sync.RWMutex
	readers map[Kind]*geoip2.Reader
}

// NewReaders prepares handles for every enabled database. Nothing is opened
// until Reload; missing files are skipped and lookups on them return ErrNotLoaded.
func NewReaders(opts Options) *Readers {
	r := &Readers{
		layout:  opts.layout(),
		kinds:   map[Kind]bool{},
		readers: map[Kind]*geoip2.Reader{},
	}
	for _, a := range opts.enabledArtifacts() {
		r.kinds[a.kind] = true
	}
	return r
}

// Reload reopens all committed databases and replaces the current set
func (r *Readers) Reload() error {
	next := map[Kind]*geoip2.Reader{}
	for kind := range r.kinds {
		path := r.layout.DBPath(kind)
		db, err := geoip2.Open(path)
		if err != nil {
			if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
			closeAll(next)
			return fmt.Errorf("open %s: %w", path, err)
		}
		next[kind] = db
	}

	r.mu.Lock()
	prev := r.readers
	r.readers = next
	r.mu.Unlock()

	closeAll(prev)
	return nil
}

// Loaded reports whether a handle for kind is open
func (r *Readers) Loaded(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readers[kind] != nil
}

// Country looks ip up in the country database
func (r *Readers) Country(ip net.IP) (*geoip2.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db := r.readers[KindCountry]
	if db == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, KindCountry)
	}
	return db.Country(ip)
}

// City looks ip up in the city database
func (r *Readers) City(ip net.IP) (*geoip2.City, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db := r.readers[KindCity]
	if db == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, KindCity)
	}
	return db.City(ip)
}

// ASN looks ip up in the ASN database
func (r *Readers) ASN(ip net.IP) (*geoip2.ASN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	db := r.readers[KindASN]
	if db == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, KindASN)
	}
	return db.ASN(ip)
}

// Close releases every open handle
func (r *Readers) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	closeAll(r.readers)
	r.readers = map[Kind]*geoip2.Reader{}
	return nil
}

func closeAll(readers map[Kind]*geoip2.Reader) {
	for _, db := range readers {
		db.Close()
	}
}

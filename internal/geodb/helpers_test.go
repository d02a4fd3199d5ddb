package geodb

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/countries"
	"github.com/klauspost/compress/gzip"
)

const testKey = "test-key"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// buildArchive produces a provider-style tar.gz: one dated directory
// holding the payload file.
func buildArchive(t *testing.T, edition, payload string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	dir := edition + "_20260224/"
	if err := tw.WriteHeader(&tar.Header{Name: dir, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatalf("write dir header: %v", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     dir + payload,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(content)),
	}); err != nil {
		t.Fatalf("write file header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// provider is a fake download endpoint
type provider struct {
	*httptest.Server
	requests atomic.Int32
	archives map[string][]byte
	status   int // forced status for every request when non-zero
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{archives: map[string][]byte{}}
	for _, a := range artifacts {
		p.archives[a.edition] = buildArchive(t, a.edition, a.payload, []byte("mmdb:"+a.edition))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/geoip_download", func(w http.ResponseWriter, r *http.Request) {
		p.requests.Add(1)
		if p.status != 0 {
			w.WriteHeader(p.status)
			return
		}
		q := r.URL.Query()
		if q.Get("license_key") != testKey || q.Get("suffix") != "tar.gz" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := p.archives[q.Get("edition_id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	})
	mux.HandleFunc("/country-codes.csv", func(w http.ResponseWriter, r *http.Request) {
		p.requests.Add(1)
		if p.status != 0 {
			w.WriteHeader(p.status)
			return
		}
		w.Write(countries.SampleCSV(countries.IndiaRow()))
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func testOptions(root string, p *provider) Options {
	return Options{
		Root:          root,
		LicenseKey:    testKey,
		Kinds:         map[Kind]bool{KindASN: true, KindCity: true},
		DownloadURL:   p.URL + "/geoip_download",
		CountryCSVURL: p.URL + "/country-codes.csv",
		HTTPClient:    p.Client(),
		Now:           func() time.Time { return fixedNow },
	}
}

// stagerFunc lets tests fake the fetch step
type stagerFunc func(ctx context.Context, scratch string) error

func (f stagerFunc) FetchAll(ctx context.Context, scratch string) error { return f(ctx, scratch) }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

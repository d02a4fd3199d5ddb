package geodb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/evyataryagoni/geodbsync/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Stager fills a scratch directory with everything a publish needs
type Stager interface {
	FetchAll(ctx context.Context, scratch string) error
}

// Fetcher downloads and unpacks every enabled edition into scratch
type Fetcher struct {
	licenseKey    string
	downloadURL   string
	countryCSVURL string
	parallel      bool
	artifacts     []artifact
	client        *http.Client
	logger        *logger.Logger
}

// NewFetcher creates a fetcher from the shared options
func NewFetcher(opts Options, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewDefault()
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		licenseKey:    opts.LicenseKey,
		downloadURL:   opts.DownloadURL,
		countryCSVURL: opts.CountryCSVURL,
		parallel:      opts.ParallelFetch,
		artifacts:     opts.enabledArtifacts(),
		client:        client,
		logger:        log.WithComponent("Fetcher"),
	}
}

// FetchAll stages every archive under scratch/<kind>/ and the country CSV
// as scratch/countries-iso.csv. The first failure aborts the whole fetch.
func (f *Fetcher) FetchAll(ctx context.Context, scratch string) error {
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fsErr("create", scratch, err)
	}
	if f.licenseKey == "" {
		return ErrMissingCredential
	}

	jobs := make([]func(context.Context) error, 0, len(f.artifacts)+1)
	for _, a := range f.artifacts {
		jobs = append(jobs, func(ctx context.Context) error {
			return f.fetchArchive(ctx, scratch, a)
		})
	}
	jobs = append(jobs, func(ctx context.Context) error {
		return f.fetchCountryCSV(ctx, scratch)
	})

	if !f.parallel {
		for _, job := range jobs {
			if err := job(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error { return job(gctx) })
	}
	return g.Wait()
}

func (f *Fetcher) fetchArchive(ctx context.Context, scratch string, a artifact) error {
	log := f.logger.WithKind(string(a.kind))
	archive := filepath.Join(scratch, string(a.kind)+".tar.gz")
	dest := filepath.Join(scratch, string(a.kind))

	log.Info().Str("edition", a.edition).Msg("Downloading database")
	if err := f.download(ctx, f.editionURL(a.edition), archive); err != nil {
		return fmt.Errorf("fetch %s: %w", a.kind, err)
	}

	log.Info().Str("archive", archive).Msg("Unpacking")
	if err := extractArchive(archive, dest); err != nil {
		return fmt.Errorf("fetch %s: %w", a.kind, err)
	}

	log.Info().Msg("Database staged")
	return nil
}

func (f *Fetcher) fetchCountryCSV(ctx context.Context, scratch string) error {
	dest := filepath.Join(scratch, countryCSVFile)
	f.logger.Info().Msg("Downloading countries ISO CSV")
	if err := f.download(ctx, f.countryCSVURL, dest); err != nil {
		return fmt.Errorf("fetch %s: %w", countryCSVFile, err)
	}
	return nil
}

func (f *Fetcher) editionURL(edition string) string {
	q := url.Values{}
	q.Set("edition_id", edition)
	q.Set("license_key", f.licenseKey)
	q.Set("suffix", "tar.gz")
	return f.downloadURL + "?" + q.Encode()
}

// download streams url into path. A partially written file is removed.
// Errors never include the URL since it carries the license key.
func (f *Fetcher) download(ctx context.Context, rawURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, redactURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fsErr("create", path, err)
	}

	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if err := out.Close(); err != nil {
		return fsErr("close", path, err)
	}
	success = true
	return nil
}

// redactURL strips the request URL from net/http's *url.Error
func redactURL(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

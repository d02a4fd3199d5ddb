package geodb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/logger"
)

// Outcome is the result reported for one update cycle
type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeNoChange Outcome = "nochange"
	OutcomeError    Outcome = "error"
)

// Publisher runs one update attempt: freshness check, staged fetch, copy
// into the live directory and the marker rename that commits it.
type Publisher struct {
	layout    Layout
	oracle    *Oracle
	stager    Stager
	artifacts []artifact
	now       func() time.Time
	removeAll func(path string) error
	logger    *logger.Logger

	// one attempt at a time, whether from the driver or a manual refresh
	mu sync.Mutex
}

// NewPublisher wires a publisher. stager is normally a *Fetcher.
func NewPublisher(opts Options, oracle *Oracle, stager Stager, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Publisher{
		layout:    opts.layout(),
		oracle:    oracle,
		stager:    stager,
		artifacts: opts.enabledArtifacts(),
		now:       opts.now,
		removeAll: os.RemoveAll,
		logger:    log.WithComponent("Publisher"),
	}
}

// Publish performs one cycle. Nothing in the live directory changes unless
// the oracle reports the snapshot as stale. Until the final rename of
// version.new the previously committed marker stays authoritative.
func (p *Publisher) Publish(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.oracle.NeedsUpdate() {
		return OutcomeNoChange, nil
	}

	if err := os.MkdirAll(p.layout.Root, 0o755); err != nil {
		return OutcomeError, fsErr("create", p.layout.Root, err)
	}

	started := p.now()
	pending := p.layout.PendingMarker()
	if err := writeMarker(pending, started); err != nil {
		return OutcomeError, err
	}

	scratch := p.layout.Scratch()
	if err := p.removeAll(scratch); err != nil {
		return OutcomeError, fsErr("remove", scratch, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := p.removeAll(scratch); err != nil {
			p.logger.Warn().Err(err).Str("scratch", scratch).Msg("Failed to clean up scratch directory")
		}
	}()

	if err := p.stager.FetchAll(ctx, scratch); err != nil {
		return OutcomeError, err
	}

	staged, err := p.stage(scratch)
	if err != nil {
		return OutcomeError, err
	}

	for _, s := range staged {
		if err := os.Rename(s.tmp, s.dest); err != nil {
			discard(staged)
			return OutcomeError, fsErr("rename", s.dest, err)
		}
	}

	if err := os.Rename(pending, p.layout.Marker()); err != nil {
		return OutcomeError, fsErr("rename", pending, err)
	}
	committed = true

	// the snapshot is live from here on; a stale scratch dir is cleared next cycle
	if err := p.removeAll(scratch); err != nil {
		p.logger.Warn().Err(err).Str("scratch", scratch).Msg("Failed to clean up scratch directory after commit")
	}

	p.logger.Info().
		Time("version", started).
		Int("databases", len(p.artifacts)).
		Msg("Databases updated")
	return OutcomeUpdated, nil
}

type stagedFile struct {
	tmp  string
	dest string
}

// stage copies every payload next to its destination under a temporary
// name. Existing live files are not touched; on error the copies are removed.
func (p *Publisher) stage(scratch string) (files []stagedFile, err error) {
	live := p.layout.LiveDir()
	if err := os.MkdirAll(live, 0o755); err != nil {
		return nil, fsErr("create", live, err)
	}

	defer func() {
		if err != nil {
			discard(files)
			files = nil
		}
	}()

	for _, a := range p.artifacts {
		src, err := LocatePayload(filepath.Join(scratch, string(a.kind)), a.edition+"_*", a.payload)
		if err != nil {
			return files, fmt.Errorf("publish %s: %w", a.kind, err)
		}
		s, err := stageCopy(src, filepath.Join(live, a.dest))
		if err != nil {
			return files, fmt.Errorf("publish %s: %w", a.kind, err)
		}
		files = append(files, s)
	}

	s, err := stageCopy(filepath.Join(scratch, countryCSVFile), p.layout.CountryCSV())
	if err != nil {
		return files, fmt.Errorf("publish %s: %w", countryCSVFile, err)
	}
	return append(files, s), nil
}

func stageCopy(src, dest string) (stagedFile, error) {
	in, err := os.Open(src)
	if err != nil {
		return stagedFile{}, fsErr("open", src, err)
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return stagedFile{}, fsErr("create", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return stagedFile{}, fsErr("copy", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return stagedFile{}, fsErr("sync", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return stagedFile{}, fsErr("close", tmp, err)
	}
	return stagedFile{tmp: tmp, dest: dest}, nil
}

func discard(files []stagedFile) {
	for _, f := range files {
		os.Remove(f.tmp)
	}
}

package geodb

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/logger"
)

// DefaultRefreshInterval is how old a committed snapshot must be before
// the next cycle downloads again.
const DefaultRefreshInterval = 7 * 24 * time.Hour

// Oracle decides whether the committed snapshot is due for a refresh
type Oracle struct {
	layout   Layout
	frozen   bool
	interval time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// NewOracle creates a freshness oracle from the shared options
func NewOracle(opts Options, log *logger.Logger) *Oracle {
	if log == nil {
		log = logger.NewDefault()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Oracle{
		layout:   opts.layout(),
		frozen:   opts.Frozen,
		interval: interval,
		now:      opts.now,
		logger:   log.WithComponent("FreshnessOracle"),
	}
}

// NeedsUpdate reports whether a refresh is due. Anything that prevents
// reading a sane marker counts as stale.
func (o *Oracle) NeedsUpdate() bool {
	marker := o.layout.Marker()

	if o.frozen {
		if _, err := os.Stat(marker); err == nil {
			o.logger.Info().Msg("Frozen mode is active, skipping update")
			return false
		}
	}

	last, err := o.LastUpdate()
	if err != nil {
		o.logger.Warn().Err(err).Msg("Cannot determine database age, refreshing")
		return true
	}

	elapsed := o.now().Sub(last)
	if elapsed < 0 {
		o.logger.Warn().
			Err(ErrClockSkew).
			Time("marker", last).
			Msg("Cannot determine database age, refreshing")
		return true
	}

	if elapsed < o.interval {
		o.logger.Info().
			Dur("age", elapsed).
			Dur("refresh_interval", o.interval).
			Msg("Databases are fresh, no update needed")
		return false
	}

	return true
}

// LastUpdate returns the time recorded in the committed marker
func (o *Oracle) LastUpdate() (time.Time, error) {
	return readMarker(o.layout.Marker())
}

func readMarker(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, fsErr("read", path, err)
	}
	secs, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 63)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrMalformedMarker, path, err)
	}
	return time.Unix(int64(secs), 0), nil
}

func writeMarker(path string, t time.Time) error {
	if err := os.WriteFile(path, []byte(strconv.FormatInt(t.Unix(), 10)), 0o644); err != nil {
		return fsErr("write", path, err)
	}
	return nil
}

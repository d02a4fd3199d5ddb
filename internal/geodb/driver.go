package geodb

import (
	"context"
	"sync"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/logger"
)

// DefaultCheckInterval is the driver's tick period
const DefaultCheckInterval = time.Hour

// CycleResult is what observers receive after every attempt
type CycleResult struct {
	Outcome   Outcome
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

func (r CycleResult) finishedAt() time.Time {
	return r.StartedAt.Add(r.Duration)
}

// Observer is notified once per completed cycle
type Observer interface {
	OnCycleComplete(ctx context.Context, result CycleResult)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, result CycleResult)

func (f ObserverFunc) OnCycleComplete(ctx context.Context, result CycleResult) { f(ctx, result) }

// Updater runs a single update attempt
type Updater interface {
	Publish(ctx context.Context) (Outcome, error)
}

// Driver triggers one update attempt per interval. Cycles never overlap:
// the loop blocks on each attempt before waiting for the next tick.
type Driver struct {
	updater  Updater
	interval time.Duration
	observer Observer
	logger   *logger.Logger

	mu   sync.RWMutex
	last *CycleResult
}

// NewDriver creates a driver. observer may be nil.
func NewDriver(updater Updater, interval time.Duration, observer Observer, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.NewDefault()
	}
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Driver{
		updater:  updater,
		interval: interval,
		observer: observer,
		logger:   log.WithComponent("Driver"),
	}
}

// Run ticks immediately and then every interval until ctx is cancelled.
// Failed cycles are logged and reported; they never end the loop.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info().Dur("interval", d.interval).Msg("Database sync started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.RunOnce(ctx)

		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Database sync stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cycle and reports it
func (d *Driver) RunOnce(ctx context.Context) CycleResult {
	started := time.Now()
	outcome, err := d.updater.Publish(ctx)
	if err != nil {
		outcome = OutcomeError
	}
	result := CycleResult{
		Outcome:   outcome,
		Err:       err,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	if err != nil {
		d.logger.Error().Err(err).Dur("duration", result.Duration).Msg("Update cycle failed")
	} else {
		d.logger.Info().
			Str("outcome", string(outcome)).
			Dur("duration", result.Duration).
			Msg("Update cycle complete")
	}

	d.record(result)

	if d.observer != nil {
		d.observer.OnCycleComplete(ctx, result)
	}
	return result
}

// record keeps result unless a cycle that finished later is already stored.
// A manual refresh and a tick can both be in RunOnce; the publisher
// serializes them, so the later finish is the newer state.
func (d *Driver) record(result CycleResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last != nil && d.last.finishedAt().After(result.finishedAt()) {
		return
	}
	d.last = &result
}

// LastResult returns the most recent cycle, if any ran
func (d *Driver) LastResult() (CycleResult, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return CycleResult{}, false
	}
	return *d.last, true
}

package observer

import (
	"context"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/logger"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
)

// Reloader is anything that re-reads committed artifacts
type Reloader interface {
	Reload() error
}

// Target names a reloader for logs and metrics
type Target struct {
	Name     string
	Reloader Reloader
}

// ReloadObserver refreshes in-process readers after a cycle that committed
// new files. Other outcomes are ignored.
type ReloadObserver struct {
	targets []Target
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewReloadObserver creates the hook. m may be nil.
func NewReloadObserver(m *metrics.Metrics, log *logger.Logger, targets ...Target) *ReloadObserver {
	return &ReloadObserver{targets: targets, metrics: m, logger: log.WithComponent("ReloadObserver")}
}

func (o *ReloadObserver) OnCycleComplete(_ context.Context, r geodb.CycleResult) {
	if r.Outcome != geodb.OutcomeUpdated {
		return
	}
	for _, t := range o.targets {
		status := "success"
		if err := t.Reloader.Reload(); err != nil {
			status = "error"
			o.logger.Error().Err(err).Str("target", t.Name).Msg("Reload after update failed")
		} else {
			o.logger.Info().Str("target", t.Name).Msg("Reloaded after update")
		}
		if o.metrics != nil {
			o.metrics.DatabaseReloadsTotal.WithLabelValues(t.Name, status).Inc()
		}
	}
}

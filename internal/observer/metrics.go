package observer

import (
	"context"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/metrics"
)

// MetricsObserver exports cycle outcomes to Prometheus
type MetricsObserver struct {
	m *metrics.Metrics
}

func NewMetricsObserver(m *metrics.Metrics) *MetricsObserver {
	return &MetricsObserver{m: m}
}

func (o *MetricsObserver) OnCycleComplete(_ context.Context, r geodb.CycleResult) {
	o.m.UpdateCyclesTotal.WithLabelValues(string(r.Outcome)).Inc()
	o.m.UpdateCycleDuration.Observe(r.Duration.Seconds())
	if r.Outcome == geodb.OutcomeUpdated {
		// the committed marker is stamped with the cycle start
		o.m.LastSuccessfulUpdate.Set(float64(r.StartedAt.Unix()))
	}
}

// Package observer holds the update-cycle observers wired into the driver:
// Prometheus metrics, Redis publication, MySQL history and reload hooks.
package observer

import (
	"context"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
)

// Event is the serialized form of a cycle result
type Event struct {
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// NewEvent converts a cycle result for publication
func NewEvent(r geodb.CycleResult) Event {
	e := Event{
		Outcome:    string(r.Outcome),
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}

type multi []geodb.Observer

func (m multi) OnCycleComplete(ctx context.Context, r geodb.CycleResult) {
	for _, o := range m {
		o.OnCycleComplete(ctx, r)
	}
}

// Multi fans a result out to every non-nil observer, in order
func Multi(observers ...geodb.Observer) geodb.Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

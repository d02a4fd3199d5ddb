package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/evyataryagoni/geodbsync/internal/geodb"
	"github.com/evyataryagoni/geodbsync/internal/models"
)

// CycleRunner runs update cycles and remembers the last one
type CycleRunner interface {
	RunOnce(ctx context.Context) geodb.CycleResult
	LastResult() (geodb.CycleResult, bool)
}

// VersionSource reports when the live snapshot was committed
type VersionSource interface {
	LastUpdate() (time.Time, error)
}

// SyncHandler exposes the update driver over HTTP
type SyncHandler struct {
	driver  CycleRunner
	version VersionSource
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(driver CycleRunner, version VersionSource) *SyncHandler {
	return &SyncHandler{driver: driver, version: version}
}

// Status handles GET /v1/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status())
}

// Refresh handles POST /v1/admin/refresh. The cycle goes through the same
// single-flight lock as the background driver and ignores client disconnects.
func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result := h.driver.RunOnce(context.WithoutCancel(r.Context()))

	code := http.StatusOK
	if result.Outcome == geodb.OutcomeError {
		code = http.StatusBadGateway
	}
	respondJSON(w, code, h.status())
}

func (h *SyncHandler) status() models.SyncStatus {
	var s models.SyncStatus

	if committed, err := h.version.LastUpdate(); err == nil {
		committed = committed.UTC()
		s.CommittedAt = &committed
	}

	if last, ok := h.driver.LastResult(); ok {
		started := last.StartedAt.UTC()
		s.LastCycleAt = &started
		s.LastOutcome = string(last.Outcome)
		s.LastDuration = last.Duration.String()
		if last.Err != nil {
			s.LastError = last.Err.Error()
		}
	}
	return s
}

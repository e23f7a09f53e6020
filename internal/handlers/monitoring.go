package handlers

import (
	"net/http"

	"github.com/omnidev/gateway/internal/metrics"
)

// Monitoring exposes the gate's request counters.
type Monitoring struct {
	Metrics *metrics.Recorder
}

// HandleSummary reports counts accumulated since process start.
func (h *Monitoring) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": h.Metrics.Snapshot(),
	})
}

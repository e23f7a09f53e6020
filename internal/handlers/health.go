package handlers

import "net/http"

// Health serves the public root and health endpoints.
type Health struct {
	Name    string
	Version string
	Env     string

	// Services maps a service name to "configured" or "not configured"
	// so operators can see at a glance which integrations are live.
	Services map[string]string
}

// HandleRoot reports basic service info.
func (h *Health) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    h.Name,
		"version": h.Version,
		"status":  "operational",
	})
}

// HandleHealth is the monitoring health check.
func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"environment": h.Env,
		"services":    h.Services,
	})
}

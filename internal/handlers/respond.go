// Package handlers contains the business route handlers the gate forwards
// to. Each handler is a thin adapter between the HTTP surface and an
// external collaborator; none of them hold algorithmic logic of their own.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omnidev/gateway/internal/geo"
	"github.com/omnidev/gateway/internal/inventory"
	"github.com/omnidev/gateway/internal/scraper"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeUpstreamError maps collaborator failures: a missing configuration is
// the operator's problem (503), anything else is the upstream's (500).
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrUnconfigured),
		errors.Is(err, scraper.ErrUnconfigured),
		errors.Is(err, geo.ErrUnconfigured):
		writeDetail(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

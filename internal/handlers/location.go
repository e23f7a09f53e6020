package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/omnidev/gateway/internal/geo"
)

// Location forwards geocoding lookups to the external geocoding API.
type Location struct {
	Client *geo.Client
}

// HandleGeocode resolves ?address= to coordinates.
func (h *Location) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeDetail(w, http.StatusBadRequest, "address is required")
		return
	}

	loc, err := h.Client.Geocode(r.Context(), address)
	if err != nil {
		h.writeGeoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// HandleReverse resolves ?lat=&lng= to an address.
func (h *Location) HandleReverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeDetail(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	loc, err := h.Client.Reverse(r.Context(), lat, lng)
	if err != nil {
		h.writeGeoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// HandleIP locates the calling client by IP.
func (h *Location) HandleIP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	loc, err := h.Client.IPLookup(r.Context(), ip)
	if err != nil {
		h.writeGeoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *Location) writeGeoError(w http.ResponseWriter, err error) {
	if errors.Is(err, geo.ErrNoResults) {
		writeDetail(w, http.StatusNotFound, "no results")
		return
	}
	writeUpstreamError(w, err)
}

// clientIP prefers the forwarded address set by an upstream proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

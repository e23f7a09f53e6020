package handlers

import (
	"log/slog"
	"net/http"

	"github.com/omnidev/gateway/internal/scraper"
)

// Scraper forwards page-fetch requests to the browser-automation service.
type Scraper struct {
	Client *scraper.Client
	Logger *slog.Logger
}

// HandleScrape renders a URL and returns its content.
func (h *Scraper) HandleScrape(w http.ResponseWriter, r *http.Request) {
	var in scraper.ScrapeRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if in.URL == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return
	}
	if in.WaitTimeMS == 0 {
		in.WaitTimeMS = 2000
	}

	result, err := h.Client.Scrape(r.Context(), in)
	if err != nil {
		h.Logger.Error("scrape failed", slog.String("url", in.URL), slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleScreenshot captures a full-page screenshot.
func (h *Scraper) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL string `json:"url"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.URL == "" {
		writeDetail(w, http.StatusBadRequest, "url is required")
		return
	}

	shot, err := h.Client.Screenshot(r.Context(), in.URL)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"screenshot": shot})
}

// HandleStatus reports the scraper service's engine status.
func (h *Scraper) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Client.Status(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/omnidev/gateway/internal/server"
	"github.com/omnidev/gateway/internal/storage/analytics"
)

// Analytics ingests frontend events. The routes are public (the gate
// bypasses /analytics) so anonymous events are accepted; the user ID is
// recorded only when the request happens to carry a verified identity.
type Analytics struct {
	Store  *analytics.Store
	Logger *slog.Logger
}

type analyticsEvent struct {
	Name string         `json:"name"`
	Path string         `json:"path,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

// HandleTrack persists one event.
func (h *Analytics) HandleTrack(w http.ResponseWriter, r *http.Request) {
	var in analyticsEvent
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}

	event := analytics.Event{
		Name: in.Name,
		Path: in.Path,
	}
	if id, ok := server.IdentityFrom(r.Context()); ok {
		event.UserID = id.UserID
	}
	if err := event.SetMeta(in.Meta); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid meta")
		return
	}

	stored, err := h.Store.Insert(r.Context(), event)
	if err != nil {
		h.Logger.Error("analytics insert failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "failed to store event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"id": stored.ID,
	})
}

// HandleRecent returns the newest events, most recent first.
func (h *Analytics) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.Store.Recent(r.Context(), limit)
	if err != nil {
		h.Logger.Error("analytics query failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "failed to query events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

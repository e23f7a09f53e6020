package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omnidev/gateway/internal/inventory"
)

// Storage proxies object-storage operations through the inventory agent.
type Storage struct {
	Agent  *inventory.Client
	Logger *slog.Logger
}

// HandleListBuckets lists buckets.
func (h *Storage) HandleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Agent.ListBuckets(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

// HandleListObjects lists objects under an optional ?prefix=.
func (h *Storage) HandleListObjects(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	objects, err := h.Agent.ListObjects(r.Context(), bucket, r.URL.Query().Get("prefix"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bucket": bucket, "objects": objects})
}

// HandleUpload stores a multipart file. The object key defaults to the
// uploaded filename.
func (h *Storage) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	bucket := r.FormValue("bucket_name")
	if bucket == "" {
		writeDetail(w, http.StatusBadRequest, "bucket_name is required")
		return
	}
	key := r.FormValue("key")
	if key == "" {
		key = header.Filename
	}

	contentType := header.Header.Get("Content-Type")
	if err := h.Agent.Upload(r.Context(), bucket, key, contentType, file); err != nil {
		h.Logger.Error("upload failed",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"bucket":  bucket,
		"key":     key,
		"size":    header.Size,
	})
}

// HandleDownload streams an object back to the client.
func (h *Storage) HandleDownload(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	key := r.URL.Query().Get("key")
	if bucket == "" || key == "" {
		writeDetail(w, http.StatusBadRequest, "bucket and key are required")
		return
	}

	body, contentType, err := h.Agent.Download(r.Context(), bucket, key)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omnidev/gateway/internal/inventory"
	"github.com/omnidev/gateway/internal/server"
)

// DevOps forwards inventory actions to the cloud agent service.
type DevOps struct {
	Agent  *inventory.Client
	Gate   *server.Gate
	Logger *slog.Logger
}

type actionRequest struct {
	Action       string `json:"action,omitempty"`
	InstanceID   string `json:"instance_id,omitempty"`
	ImageID      string `json:"ami_id,omitempty"`
	InstanceType string `json:"instance_type,omitempty"`
	Name         string `json:"name,omitempty"`
}

// HandleCapabilities reports the agent's capability document.
func (h *DevOps) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.Agent.Capabilities(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(caps)
}

// HandleCommand forwards a natural language command.
func (h *DevOps) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Command string `json:"command"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	result, err := h.Agent.Command(r.Context(), in.Command)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleListInstances lists compute instances.
func (h *DevOps) HandleListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.Agent.ListInstances(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
}

// HandleLaunch launches a new instance with defaults filled in.
func (h *DevOps) HandleLaunch(w http.ResponseWriter, r *http.Request) {
	var in actionRequest
	if !decodeBody(w, r, &in) {
		return
	}
	req := inventory.LaunchRequest{
		ImageID:      in.ImageID,
		InstanceType: in.InstanceType,
		Name:         in.Name,
	}
	if req.InstanceType == "" {
		req.InstanceType = "t2.micro"
	}
	if req.Name == "" {
		req.Name = "OmniDev-Instance"
	}
	instance, err := h.Agent.Launch(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instance)
}

// HandleStart starts a stopped instance.
func (h *DevOps) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, h.Agent.Start)
}

// HandleStop stops a running instance.
func (h *DevOps) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, h.Agent.Stop)
}

// HandleTerminate destroys an instance.
func (h *DevOps) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	h.instanceAction(w, r, h.Agent.Terminate)
}

func (h *DevOps) instanceAction(w http.ResponseWriter, r *http.Request, action func(context.Context, string) error) {
	var in actionRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if in.InstanceID == "" {
		writeDetail(w, http.StatusBadRequest, "instance_id is required")
		return
	}
	if err := action(r.Context(), in.InstanceID); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "instance_id": in.InstanceID})
}

// HandleListBuckets lists object-storage buckets.
func (h *DevOps) HandleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Agent.ListBuckets(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

// HandleListObjects lists objects in a bucket.
func (h *DevOps) HandleListObjects(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	objects, err := h.Agent.ListObjects(r.Context(), bucket, r.URL.Query().Get("prefix"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bucket": bucket, "objects": objects})
}

// HandleAgentWS is the interactive agent WebSocket. Authentication happens
// out-of-band during the upgrade; each inbound frame carries one command.
func (h *DevOps) HandleAgentWS(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := h.Gate.UpgradeAuthenticated(w, r)
	if !ok {
		return
	}
	defer conn.Close()

	conn.WriteJSON(map[string]string{
		"type":    "welcome",
		"message": "DevOps Agent connected",
	})

	for {
		var in struct {
			Command string `json:"command"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		result, err := h.Agent.Command(r.Context(), in.Command)
		if err != nil {
			h.Logger.Warn("agent command failed",
				slog.String("user_id", id.UserID),
				slog.String("error", err.Error()),
			)
			conn.WriteJSON(map[string]string{"type": "error", "content": err.Error()})
			continue
		}
		conn.WriteJSON(map[string]any{
			"type":    "response",
			"content": result.Response,
			"actions": result.Actions,
			"context": result.Context,
		})
	}
}

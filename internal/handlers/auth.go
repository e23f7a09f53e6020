package handlers

import (
	"net/http"

	"github.com/omnidev/gateway/internal/auth"
	"github.com/omnidev/gateway/internal/server"
)

// Auth serves the credential-issuance routes. These sit under the path
// prefix the gate exempts from the X-API-Key check, so a bearer token alone
// is enough to bootstrap a derived key.
type Auth struct {
	Keys *auth.KeyDeriver
}

// HandleMe returns the verified identity attached by the gate.
func (h *Auth) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := server.IdentityFrom(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": id.UserID,
		"role":    id.Role,
	})
}

// HandleCreateAPIKey derives and returns the caller's secondary API key.
func (h *Auth) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := server.IdentityFrom(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"api_key": h.Keys.DeriveAPIKey(id.UserID),
	})
}

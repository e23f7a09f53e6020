package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omnidev/gateway/internal/auth"
)

// WebSocket close codes distinguishing the two auth failure modes, since an
// upgraded connection can no longer carry an HTTP status.
const (
	CloseInvalidToken  = 4401
	CloseInvalidAPIKey = 4403
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser frontend connects cross-origin; tokens carry the trust.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// UpgradeAuthenticated upgrades the request to a WebSocket and performs the
// gate's token and API key checks out-of-band, reading both from query
// parameters. On failure the socket is closed with CloseInvalidToken or
// CloseInvalidAPIKey and a nil connection is returned. The caller owns the
// returned connection.
func (g *Gate) UpgradeAuthenticated(w http.ResponseWriter, r *http.Request) (*websocket.Conn, auth.Identity, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return nil, auth.Identity{}, false
	}

	query := r.URL.Query()

	id, err := g.Verifier.Verify(r.Context(), query.Get("token"))
	if err != nil {
		closeWith(conn, CloseInvalidToken, "invalid token")
		return nil, auth.Identity{}, false
	}

	if !g.Keys.VerifyAPIKey(id.UserID, query.Get("api_key")) {
		closeWith(conn, CloseInvalidAPIKey, "invalid API key")
		return nil, auth.Identity{}, false
	}

	return conn, id, true
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()
}

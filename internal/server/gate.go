package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/omnidev/gateway/internal/auth"
	"github.com/omnidev/gateway/internal/metrics"
	"github.com/omnidev/gateway/internal/ratelimit"
)

const (
	// protectedPrefix is the path prefix the gate guards. Everything else
	// is forwarded untouched.
	protectedPrefix = "/api/"

	// credentialPrefix is exempt from the X-API-Key check so clients can
	// fetch their derived key with only a bearer token.
	credentialPrefix = "/api/auth/"

	apiKeyHeader = "X-API-Key"
)

// websocketPaths are the routes whose handlers authenticate out-of-band
// during the upgrade. Only these may skip the gate's HTTP checks; upgrade
// headers on any other route are ignored, since a plain client can forge
// them.
var websocketPaths = map[string]bool{
	"/api/ai/chat/stream": true,
	"/api/devops/agent":   true,
}

// publicPaths bypass the gate entirely: health, root, interactive docs, and
// analytics ingestion.
func isPublicPath(path string) bool {
	if path == "/" || path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/docs") ||
		strings.HasPrefix(path, "/redoc") ||
		strings.HasPrefix(path, "/openapi.json") ||
		strings.HasPrefix(path, "/analytics")
}

// Gate is the single choke point in front of every protected route. It
// verifies the bearer token, checks the derived API key, applies the
// per-(user, path) rate limit, and records metrics after the handler runs.
// All of its state lives in the injected collaborators; the gate itself is
// stateless across requests.
type Gate struct {
	Verifier *auth.Verifier
	Keys     *auth.KeyDeriver
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// Middleware wires the gate into a chi middleware chain.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if isPublicPath(path) || !strings.HasPrefix(path, protectedPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		// WebSocket upgrades authenticate out-of-band via query
		// parameters inside the handler, where a close code can be
		// sent instead of an HTTP status.
		if websocketPaths[path] && websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authorization required")
			return
		}

		id, err := g.Verifier.Verify(r.Context(), token)
		if err != nil {
			g.rejectToken(w, r, err)
			return
		}
		r = r.WithContext(WithIdentity(r.Context(), id))

		if !strings.HasPrefix(path, credentialPrefix) {
			supplied := r.Header.Get(apiKeyHeader)
			if supplied == "" || !g.Keys.VerifyAPIKey(id.UserID, supplied) {
				writeDetail(w, http.StatusForbidden, "Invalid API key")
				return
			}
		}

		if err := g.Limiter.Admit(id.UserID + ":" + path); err != nil {
			writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		g.Metrics.Record(path, wrapped.statusCode)
	})
}

func (g *Gate) rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrNotConfigured) {
		g.Logger.Error("token verification unavailable",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeDetail(w, http.StatusServiceUnavailable, "Token verification not configured")
		return
	}
	writeDetail(w, http.StatusUnauthorized, "Invalid token")
}

// bearerToken extracts the bearer token from the Authorization header, or ""
// when absent or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeDetail writes the short JSON rejection body used on every gate
// failure.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

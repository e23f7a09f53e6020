// Package auth verifies externally-issued bearer tokens and derives the
// per-user secondary API key that protected routes require alongside them.
package auth

import "errors"

// Sentinel errors for the two failure modes token verification can hit.
// ErrInvalidToken is an authentication failure; ErrNotConfigured means the
// verifier itself is missing configuration and must surface as a 503, never
// as a 401, so operators can tell a bad deploy from a bad client.
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfigured = errors.New("token verifier not configured")
)

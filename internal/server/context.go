package server

import (
	"context"

	"github.com/omnidev/gateway/internal/auth"
)

// identityKey is the context key for the verified request identity.
type identityKey struct{}

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom retrieves the verified identity from context. ok is false on
// requests that never passed through the gate (public routes).
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the result of a successful token verification. It is derived
// fresh per request and attached to the request context; the gate never
// persists it.
type Identity struct {
	UserID string
	Role   string
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens issued by the external identity provider.
// HMAC-signed tokens are checked against the configured shared secret;
// asymmetric tokens are checked against the remote key set resolved by kid.
// Either side may be left unconfigured, in which case tokens using that
// scheme fail with ErrNotConfigured.
type Verifier struct {
	secret []byte
	keys   *KeySet
	issuer string
}

// NewVerifier creates a verifier. secret enables the symmetric path, keys
// the asymmetric path; issuer, when non-empty, is required to match the
// token's iss claim.
func NewVerifier(secret string, keys *KeySet, issuer string) *Verifier {
	v := &Verifier{keys: keys, issuer: issuer}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Verify parses and validates token and returns the identity it carries.
// Failures are ErrInvalidToken for anything wrong with the token itself and
// ErrNotConfigured when the scheme the token uses has no configured key
// source.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(v.secret) == 0 {
				return nil, ErrNotConfigured
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			if v.keys == nil {
				return nil, ErrNotConfigured
			}
			kid, _ := t.Header["kid"].(string)
			k, ok := v.keys.Lookup(ctx, kid)
			if !ok {
				return nil, fmt.Errorf("%w: unknown key id %q", ErrInvalidToken, kid)
			}
			return k.PublicKey()
		default:
			return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidToken, t.Method.Alg())
		}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, keyfunc, opts...)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return Identity{}, ErrNotConfigured
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// keySetTTL is how long a fetched key set is trusted before the next
	// lookup refreshes it.
	keySetTTL = 10 * time.Minute

	// fetchTimeout bounds the remote key-set fetch so a slow identity
	// provider cannot stall request handling indefinitely.
	fetchTimeout = 10 * time.Second
)

// JWK is a single public key from the identity provider's key set. Only the
// fields needed to reconstruct RSA and P-256 EC public keys are decoded.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// PublicKey reconstructs the verification key from the JWK fields.
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("invalid RSA modulus: %w", err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("invalid RSA exponent: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}, nil
	case "EC":
		if k.Crv != "P-256" {
			return nil, fmt.Errorf("unsupported EC curve %q", k.Crv)
		}
		x, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("invalid EC x coordinate: %w", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(k.Y)
		if err != nil {
			return nil, fmt.Errorf("invalid EC y coordinate: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

// FetchFunc retrieves the current remote key set. Implementations should
// honor ctx cancellation; errors are absorbed by the cache as an empty set.
type FetchFunc func(ctx context.Context) ([]JWK, error)

// HTTPFetch returns a FetchFunc that GETs url and decodes the standard
// {"keys": [...]} document. A non-2xx status or malformed body is an error,
// which KeySet degrades to "no keys" rather than propagating.
func HTTPFetch(url string, client *http.Client) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) ([]JWK, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("key set fetch failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("key set fetch returned status %d", resp.StatusCode)
		}

		var doc struct {
			Keys []JWK `json:"keys"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, fmt.Errorf("key set decode failed: %w", err)
		}
		return doc.Keys, nil
	}
}

// KeySet is a process-wide cache of the identity provider's public keys,
// lazily populated and refreshed when older than the TTL. An unknown kid
// forces exactly one extra refresh before giving up, which is what lets
// token verification survive key rotation without a restart.
type KeySet struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	// group coalesces concurrent refreshes so a burst of requests after
	// the TTL expires produces a single upstream fetch.
	group singleflight.Group

	mu        sync.RWMutex
	keys      []JWK
	fetchedAt time.Time
}

// NewKeySet creates a cache around fetch with the default TTL.
func NewKeySet(fetch FetchFunc) *KeySet {
	return &KeySet{
		fetch: fetch,
		ttl:   keySetTTL,
		now:   time.Now,
	}
}

// Lookup resolves kid to a key, refreshing the cache when it is stale or
// empty, and once more when the kid is unknown. Returns false when the kid
// cannot be found even after a forced refresh.
func (s *KeySet) Lookup(ctx context.Context, kid string) (JWK, bool) {
	if s.stale() {
		s.refresh(ctx)
	}
	if k, ok := s.find(kid); ok {
		return k, true
	}
	// The kid may belong to a key published since the last fetch.
	s.refresh(ctx)
	return s.find(kid)
}

func (s *KeySet) stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) == 0 || s.now().Sub(s.fetchedAt) > s.ttl
}

func (s *KeySet) find(kid string) (JWK, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return JWK{}, false
}

func (s *KeySet) refresh(ctx context.Context) {
	s.group.Do("refresh", func() (any, error) {
		fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		keys, err := s.fetch(fctx)
		if err != nil {
			// Remote unavailability degrades to an empty set; the
			// caller surfaces this as an unknown key.
			keys = nil
		}

		s.mu.Lock()
		s.keys = keys
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return nil, nil
	})
}

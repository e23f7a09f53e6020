package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier(testSecret, nil, "")
	token := signHS256(t, testSecret, jwt.MapClaims{
		"sub":  "user-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", id.UserID)
	}
	if id.Role != "admin" {
		t.Errorf("Role = %q, want admin", id.Role)
	}
}

func TestVerifyRoleOptional(t *testing.T) {
	v := NewVerifier(testSecret, nil, "")
	token := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.Role != "" {
		t.Errorf("Role = %q, want empty", id.Role)
	}
}

func TestVerifyRejections(t *testing.T) {
	v := NewVerifier(testSecret, nil, "https://issuer.example.com")
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-token"},
		{"empty", ""},
		{"wrong secret", signHS256(t, "other-secret", jwt.MapClaims{
			"sub": "user-1", "iss": "https://issuer.example.com", "exp": future,
		})},
		{"expired", signHS256(t, testSecret, jwt.MapClaims{
			"sub": "user-1", "iss": "https://issuer.example.com",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong issuer", signHS256(t, testSecret, jwt.MapClaims{
			"sub": "user-1", "iss": "https://evil.example.com", "exp": future,
		})},
		{"missing subject", signHS256(t, testSecret, jwt.MapClaims{
			"iss": "https://issuer.example.com", "exp": future,
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyHS256Unconfigured(t *testing.T) {
	// No shared secret configured: an HMAC token must fail as a
	// configuration problem, not an auth failure.
	v := NewVerifier("", nil, "")
	token := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Verify error = %v, want ErrNotConfigured", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("unconfigured verifier reported an auth failure")
	}
}

func TestVerifyAsymmetricUnconfigured(t *testing.T) {
	v := NewVerifier(testSecret, nil, "")

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = v.Verify(context.Background(), signed)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Verify error = %v, want ErrNotConfigured", err)
	}
}

func TestVerifyWithRemoteKeySet(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	keys := NewKeySet(func(ctx context.Context) ([]JWK, error) {
		return []JWK{rsaJWK("key-1", &key.PublicKey)}, nil
	})
	v := NewVerifier("", keys, "")

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	id, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.UserID != "user-9" {
		t.Errorf("UserID = %q, want user-9", id.UserID)
	}
}

func TestVerifyUnknownKid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	keys := NewKeySet(func(ctx context.Context) ([]JWK, error) {
		return []JWK{rsaJWK("key-1", &key.PublicKey)}, nil
	})
	v := NewVerifier("", keys, "")

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-9",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = "rotated-away"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = v.Verify(context.Background(), signed)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify error = %v, want ErrInvalidToken", err)
	}
}

// rsaJWK builds a JWK from an RSA public key.
func rsaJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kid: kid,
		Kty: "RSA",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

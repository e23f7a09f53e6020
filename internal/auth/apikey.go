package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// DefaultAPIKeySalt is the fallback salt when none is configured. It exists
// so development setups work out of the box; production deployments must set
// auth.api_key_salt.
const DefaultAPIKeySalt = "omnidev-dev-salt"

// KeyDeriver produces the secondary per-user API key from a keyed hash of
// the user ID. The derived key is stable for the lifetime of the salt and is
// never stored; it is recomputed on every check.
type KeyDeriver struct {
	salt []byte
}

// NewKeyDeriver creates a deriver with the given salt, falling back to
// DefaultAPIKeySalt when salt is empty.
func NewKeyDeriver(salt string) *KeyDeriver {
	if salt == "" {
		salt = DefaultAPIKeySalt
	}
	return &KeyDeriver{salt: []byte(salt)}
}

// DeriveAPIKey returns base64url (no padding) of HMAC-SHA256(salt, userID).
func (d *KeyDeriver) DeriveAPIKey(userID string) string {
	mac := hmac.New(sha256.New, d.salt)
	mac.Write([]byte(userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyAPIKey recomputes the derived key for userID and compares it to the
// supplied value in constant time. It never errors; a mismatch is false.
func (d *KeyDeriver) VerifyAPIKey(userID, supplied string) bool {
	expected := d.DeriveAPIKey(userID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}

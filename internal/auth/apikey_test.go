package auth

import (
	"strings"
	"testing"
)

func TestDeriveAPIKeyDeterministic(t *testing.T) {
	d := NewKeyDeriver("test-salt")

	first := d.DeriveAPIKey("user-1")
	second := d.DeriveAPIKey("user-1")
	if first != second {
		t.Errorf("derived keys differ for same user: %q vs %q", first, second)
	}
	if first == "" {
		t.Fatal("derived key is empty")
	}

	other := d.DeriveAPIKey("user-2")
	if other == first {
		t.Error("different users derived the same key")
	}
}

func TestDeriveAPIKeyDependsOnSalt(t *testing.T) {
	a := NewKeyDeriver("salt-a").DeriveAPIKey("user-1")
	b := NewKeyDeriver("salt-b").DeriveAPIKey("user-1")
	if a == b {
		t.Error("different salts derived the same key")
	}
}

func TestDeriveAPIKeyIsURLSafe(t *testing.T) {
	key := NewKeyDeriver("test-salt").DeriveAPIKey("user-1")
	if strings.ContainsAny(key, "+/=") {
		t.Errorf("derived key contains non-url-safe characters: %q", key)
	}
}

func TestVerifyAPIKey(t *testing.T) {
	d := NewKeyDeriver("test-salt")

	if !d.VerifyAPIKey("user-1", d.DeriveAPIKey("user-1")) {
		t.Error("valid key rejected")
	}
	if d.VerifyAPIKey("user-1", "not-the-key") {
		t.Error("invalid key accepted")
	}
	if d.VerifyAPIKey("user-1", "") {
		t.Error("empty key accepted")
	}
	if d.VerifyAPIKey("user-1", d.DeriveAPIKey("user-2")) {
		t.Error("another user's key accepted")
	}
}

func TestDefaultSaltFallback(t *testing.T) {
	d := NewKeyDeriver("")
	want := NewKeyDeriver(DefaultAPIKeySalt).DeriveAPIKey("user-1")
	if got := d.DeriveAPIKey("user-1"); got != want {
		t.Errorf("empty salt did not fall back to default: got %q want %q", got, want)
	}
}

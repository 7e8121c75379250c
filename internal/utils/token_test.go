package utils

import (
	"encoding/hex"
	"testing"
)

func TestNewGuestTokenShape(t *testing.T) {
	t.Parallel()
	tok, err := NewGuestToken()
	if err != nil {
		t.Fatalf("NewGuestToken: %v", err)
	}
	if len(tok) != 32 {
		t.Fatalf("token length = %d, want 32 hex chars", len(tok))
	}
	if _, err := hex.DecodeString(tok); err != nil {
		t.Fatalf("token %q is not hex: %v", tok, err)
	}
}

func TestNewGuestTokenUnique(t *testing.T) {
	t.Parallel()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := NewGuestToken()
		if err != nil {
			t.Fatalf("NewGuestToken: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q after %d draws", tok, i)
		}
		seen[tok] = struct{}{}
	}
}

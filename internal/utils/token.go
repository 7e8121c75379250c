package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"encoding/hex"  // hex encoding for token strings
)

// guestTokenBytes is the entropy of a guest token.  16 random bytes
// give 128 bits, well beyond what an online attacker can enumerate;
// the hex form is a 32 character URL-safe path segment.
const guestTokenBytes = 16

// NewGuestToken returns a fresh opaque guest token.  Tokens are
// generated once per reservation on first room assignment and are
// never reassigned or reused.
func NewGuestToken() (string, error) {
	return randomHex(guestTokenBytes)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  If the random number
// generator fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

package bookinglink

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Token length bounds for the pre-lookup format gate. Generated tokens are 43
// characters; the bounds leave room without admitting junk.
const (
	minTokenLen = 20
	maxTokenLen = 128
)

// NewToken generates a fresh random token and its storage hash. The raw token
// is returned to the caller exactly once and never persisted.
func NewToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("bookinglink: generate token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken computes the deterministic one-way hash stored in place of the
// token. The token carries 256 bits of entropy, so a fast hash is sufficient;
// there is nothing to brute-force.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidFormat gates caller-supplied tokens on size and character class before
// any database lookup, so probing junk never reaches the store.
func ValidFormat(raw string) bool {
	if len(raw) < minTokenLen || len(raw) > maxTokenLen {
		return false
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

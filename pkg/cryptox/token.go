// Package cryptox mints opaque bearer secrets and the fingerprints stored in
// their place.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// DefaultTokenSize gives 256 bits of entropy, 43 base64url characters.
const DefaultTokenSize = 32

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the SHA-256 of token as unpadded base64url. Only
// fingerprints are persisted, so a database leak does not leak live tokens.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewSecret mints a token and its fingerprint in one step. The raw token is
// handed to the recipient once; the fingerprint is what gets stored.
func NewSecret() (raw, fingerprint string, err error) {
	raw, err = GenerateToken(DefaultTokenSize)
	if err != nil {
		return "", "", err
	}
	return raw, FingerprintToken(raw), nil
}

// MatchesFingerprint reports whether token hashes to fingerprint, comparing
// in constant time.
func MatchesFingerprint(token, fingerprint string) bool {
	got := FingerprintToken(token)
	return subtle.ConstantTimeCompare([]byte(got), []byte(fingerprint)) == 1
}

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the entropy of opaque tokens handed to clients
const TokenBytes = 32

// GenerateToken returns TokenBytes of crypto/rand entropy, hex-encoded
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 of a token. Only this form is stored.
func HashToken(token string) string {
	return HashString(token)
}

// HashString returns the hex SHA-256 of s
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

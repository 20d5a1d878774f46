package auth

import (
	"crypto/rand"
	"encoding/base64"
)

const resetTokenBytes = 32

// GenerateResetToken returns a URL-safe base64 encoding of 32
// cryptographically random bytes, per spec.md §6's persisted format.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

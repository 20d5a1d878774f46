package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 10
	bcryptCost        = bcrypt.DefaultCost
)

var ErrWeakPassword = errors.New("auth: password does not meet strength requirements")

// commonDisposableEmailDomains is a small, deliberately incomplete block
// list; a production deployment would source this from a maintained
// feed. Good enough to reject the obvious cases in spec.md's §6 422
// "disposable email" response.
var commonDisposableEmailDomains = map[string]bool{
	"mailinator.com":    true,
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
}

// HashPassword adaptively hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	if err := ValidatePasswordStrength(plaintext); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ValidatePasswordStrength enforces a minimum length plus a mix of
// character classes, rejecting the weakest passwords before they ever
// reach bcrypt.
func ValidatePasswordStrength(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// IsDisposableEmail reports whether email's domain is a known disposable
// mail provider.
func IsDisposableEmail(email string) bool {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return false
	}
	return commonDisposableEmailDomains[strings.ToLower(parts[1])]
}

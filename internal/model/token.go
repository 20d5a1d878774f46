package model

import "time"

// TokenType distinguishes access from refresh bearer tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims are the signed payload of a bearer token.
type Claims struct {
	UserID    int64
	Type      TokenType
	JTI       string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevocationEntry is a token blacklist row: jti -> expiry. Entries may be
// evicted any time after Expiry.
type RevocationEntry struct {
	JTI    string
	Expiry time.Time
}

// ResetToken is a password reset token. The stores find it by Token with a
// map or SQL equality lookup; no constant-time comparison is made.
type ResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Expired reports whether the token can no longer be redeemed.
func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Valid reports whether the token may still be redeemed at now.
func (t *ResetToken) Valid(now time.Time) bool {
	return t.UsedAt == nil && !t.Expired(now)
}

// Package auth implements bearer-token issuance and validation, password
// hashing, and password-reset token handling for the session-auth module
// (spec.md §4.F).
//
// No JWT library exists anywhere in the retrieved example pack, so the
// token codec is a small hand-rolled HMAC-SHA256 construction rather than
// an import of a JOSE library the corpus never reaches for (see
// DESIGN.md). It follows the same compact, signed, base64url shape a JWT
// would: `base64url(payload) + "." + base64url(hmac)`.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gioe/aiq-assessment/internal/model"
)

var (
	errMalformedToken = errors.New("auth: malformed token")
	errBadSignature   = errors.New("auth: signature mismatch")
)

// Codec signs and verifies bearer tokens under a single HMAC secret.
// Secret must be loaded from environment with no default (spec.md §4.F).
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

type payload struct {
	UserID int64           `json:"user_id"`
	Type   model.TokenType `json:"type"`
	JTI    string          `json:"jti"`
	Email  string          `json:"email,omitempty"`
	IAT    int64           `json:"iat"`
	EXP    int64           `json:"exp"`
}

// Issue mints a fresh token of the given type for user, carrying a new
// jti. ttl controls the expiry; access tokens use a short ttl, refresh
// tokens a long one.
func (c *Codec) Issue(userID int64, email string, typ model.TokenType, now time.Time, ttl time.Duration) (string, model.Claims, error) {
	claims := model.Claims{
		UserID:    userID,
		Type:      typ,
		JTI:       uuid.NewString(),
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	tok, err := c.encode(claims)
	return tok, claims, err
}

func (c *Codec) encode(claims model.Claims) (string, error) {
	p := payload{
		UserID: claims.UserID,
		Type:   claims.Type,
		JTI:    claims.JTI,
		Email:  claims.Email,
		IAT:    claims.IssuedAt.Unix(),
		EXP:    claims.ExpiresAt.Unix(),
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("auth: encode claims: %w", err)
	}
	bodyB64 := base64.RawURLEncoding.EncodeToString(body)
	sig := c.sign(bodyB64)
	return bodyB64 + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func (c *Codec) sign(bodyB64 string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(bodyB64))
	return mac.Sum(nil)
}

// Decode parses and verifies a token's signature and well-formedness. It
// does not check expiry, type, or revocation — see Validator for the
// full pipeline from spec.md §4.F.
func (c *Codec) Decode(token string) (model.Claims, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return model.Claims{}, errMalformedToken
	}
	bodyB64, sigB64 := parts[0], parts[1]

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return model.Claims{}, errMalformedToken
	}
	expected := c.sign(bodyB64)
	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return model.Claims{}, errBadSignature
	}

	body, err := base64.RawURLEncoding.DecodeString(bodyB64)
	if err != nil {
		return model.Claims{}, errMalformedToken
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Claims{}, errMalformedToken
	}

	return model.Claims{
		UserID:    p.UserID,
		Type:      p.Type,
		JTI:       p.JTI,
		Email:     p.Email,
		IssuedAt:  time.Unix(p.IAT, 0).UTC(),
		ExpiresAt: time.Unix(p.EXP, 0).UTC(),
	}, nil
}

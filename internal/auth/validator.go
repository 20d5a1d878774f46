package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Validator runs the full token-validation pipeline from spec.md §4.F:
// decode + signature check, expiry check, expected-type check, blacklist
// check, user load, then the revocation-epoch check against that user.
type Validator struct {
	codec     *Codec
	blacklist store.Blacklist
	users     store.Users
}

func NewValidator(codec *Codec, blacklist store.Blacklist, users store.Users) *Validator {
	return &Validator{codec: codec, blacklist: blacklist, users: users}
}

// Validate authenticates token, requiring it to be of wantType (access or
// refresh), and returns the loaded user plus the verified claims.
func (v *Validator) Validate(ctx context.Context, token string, wantType model.TokenType) (*model.User, model.Claims, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return nil, model.Claims{}, apperr.Authentication("invalid_token", "invalid or malformed token")
	}

	if time.Now().After(claims.ExpiresAt) {
		return nil, model.Claims{}, apperr.Authentication("token_expired", "token has expired")
	}

	if claims.Type != wantType {
		return nil, model.Claims{}, apperr.Authentication("invalid_token_type", "token type does not match endpoint")
	}

	// Blacklist availability is not a correctness prerequisite: an
	// unreachable out-of-process blacklist fails open rather than
	// rejecting every request, mirroring Guard.Admit's fail-open on a
	// limiter backend failure.
	revoked, err := v.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		slog.Error("blacklist backend failure, admitting token", "jti", claims.JTI, "error", err)
		revoked = false
	}
	if revoked {
		return nil, model.Claims{}, apperr.Authentication("token_revoked", "token has been revoked")
	}

	user, err := v.users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.Claims{}, apperr.Authentication("invalid_token", "token subject no longer exists")
		}
		return nil, model.Claims{}, apperr.Wrap(apperr.KindServer, "user_lookup_failed", "unable to load user", err)
	}

	// Logout-all: any token whose iat predates the user's revocation
	// epoch is rejected. A user with an epoch set but a token missing iat
	// is rejected defensively — iat is always set by Issue, so a zero
	// value here can only mean a forged or corrupted token.
	if user.TokenRevokedBefore != nil {
		if claims.IssuedAt.IsZero() || claims.IssuedAt.Before(*user.TokenRevokedBefore) {
			return nil, model.Claims{}, apperr.Authentication("token_revoked", "token predates a logout-all revocation")
		}
	}

	return user, claims, nil
}

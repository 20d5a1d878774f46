package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store/memory"
)

func newTestValidator() (*Validator, *Codec, *memory.Users, *memory.Blacklist) {
	codec := NewCodec("test-secret")
	users := memory.NewUsers()
	blacklist := memory.NewBlacklist()
	return NewValidator(codec, blacklist, users), codec, users, blacklist
}

func TestValidator_AcceptsFreshAccessToken(t *testing.T) {
	v, codec, users, _ := newTestValidator()
	ctx := context.Background()
	user := &model.User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	token, _, err := codec.Issue(user.ID, user.Email, model.TokenAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	got, claims, err := v.Validate(ctx, token, model.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, model.TokenAccess, claims.Type)
}

func TestValidator_RejectsExpiredToken(t *testing.T) {
	v, codec, users, _ := newTestValidator()
	ctx := context.Background()
	user := &model.User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	token, _, err := codec.Issue(user.ID, user.Email, model.TokenAccess, time.Now().Add(-time.Hour), time.Minute)
	require.NoError(t, err)

	_, _, err = v.Validate(ctx, token, model.TokenAccess)
	assert.Error(t, err)
}

func TestValidator_RejectsWrongTokenType(t *testing.T) {
	v, codec, users, _ := newTestValidator()
	ctx := context.Background()
	user := &model.User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	refreshToken, _, err := codec.Issue(user.ID, user.Email, model.TokenRefresh, time.Now(), time.Hour)
	require.NoError(t, err)

	_, _, err = v.Validate(ctx, refreshToken, model.TokenAccess)
	assert.Error(t, err)
}

// Invariant 7 (spec.md §8): once a jti is revoked, no subsequent
// validation of that jti ever succeeds.
func TestValidator_RevokedTokenIsAbsorbingRejection(t *testing.T) {
	v, codec, users, blacklist := newTestValidator()
	ctx := context.Background()
	user := &model.User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	token, claims, err := codec.Issue(user.ID, user.Email, model.TokenAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	_, _, err = v.Validate(ctx, token, model.TokenAccess)
	require.NoError(t, err)

	_, err = blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt)
	require.NoError(t, err)

	_, _, err = v.Validate(ctx, token, model.TokenAccess)
	assert.Error(t, err)
	_, _, err = v.Validate(ctx, token, model.TokenAccess)
	assert.Error(t, err)
}

// Invariant 8 (spec.md §8): logout-all monotonically rejects every token
// issued before the new epoch, even one freshly issued.
func TestValidator_LogoutAllRejectsTokensIssuedBeforeEpoch(t *testing.T) {
	v, codec, users, _ := newTestValidator()
	ctx := context.Background()
	user := &model.User{Email: "a@b.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	staleToken, _, err := codec.Issue(user.ID, user.Email, model.TokenAccess, time.Now(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, users.AdvanceRevocation(ctx, user.ID, time.Now().Add(time.Minute)))

	_, _, err = v.Validate(ctx, staleToken, model.TokenAccess)
	assert.Error(t, err)

	freshToken, _, err := codec.Issue(user.ID, user.Email, model.TokenAccess, time.Now().Add(2*time.Minute), time.Hour)
	require.NoError(t, err)
	_, _, err = v.Validate(ctx, freshToken, model.TokenAccess)
	assert.NoError(t, err)
}

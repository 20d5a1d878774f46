package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioe/aiq-assessment/internal/model"
)

func TestCodec_IssueAndDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	now := time.Now().UTC().Truncate(time.Second)

	token, claims, err := codec.Issue(7, "user@example.com", model.TokenAccess, now, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.JTI)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), decoded.UserID)
	assert.Equal(t, model.TokenAccess, decoded.Type)
	assert.Equal(t, claims.JTI, decoded.JTI)
	assert.Equal(t, now, decoded.IssuedAt)
	assert.Equal(t, now.Add(time.Minute), decoded.ExpiresAt)
}

func TestCodec_DecodeRejectsTamperedSignature(t *testing.T) {
	codec := NewCodec("test-secret")
	token, _, err := codec.Issue(1, "a@b.com", model.TokenAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	tampered := token[:len(token)-1] + "x"
	_, err = codec.Decode(tampered)
	assert.Error(t, err)
}

func TestCodec_DecodeRejectsWrongSecret(t *testing.T) {
	issuer := NewCodec("secret-a")
	verifier := NewCodec("secret-b")

	token, _, err := issuer.Issue(1, "a@b.com", model.TokenAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.Error(t, err)
}

func TestCodec_DecodeRejectsMalformedToken(t *testing.T) {
	codec := NewCodec("secret")
	_, err := codec.Decode("not-a-valid-token")
	assert.Error(t, err)
}

func TestCodec_EveryIssueGetsFreshJTI(t *testing.T) {
	codec := NewCodec("secret")
	now := time.Now()
	_, c1, err := codec.Issue(1, "a@b.com", model.TokenAccess, now, time.Minute)
	require.NoError(t, err)
	_, c2, err := codec.Issue(1, "a@b.com", model.TokenAccess, now, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, c1.JTI, c2.JTI)
}

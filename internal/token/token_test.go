package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/winter-backend/internal/models"
)

func testAuthUser() *models.AuthUser {
	return &models.AuthUser{
		ID:          primitive.NewObjectID(),
		UID:         "123456789012",
		Username:    "ada",
		Email:       "ada@x.com",
		AvatarColor: "#9c27b0",
	}
}

func TestSignAndVerify(t *testing.T) {
	issuer := NewIssuer("super-secret", time.Hour)
	auth := testAuthUser()
	userID := primitive.NewObjectID().Hex()

	signed, err := issuer.Sign(auth, userID)
	require.NoError(t, err)

	payload, err := issuer.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, userID, payload.UserID)
	require.Equal(t, auth.UID, payload.UID)
	require.Equal(t, auth.Username, payload.Username)
	require.Equal(t, auth.Email, payload.Email)
	require.NotZero(t, payload.IssuedAt)
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := NewIssuer("right-secret", time.Hour).Sign(testAuthUser(), "u1")
	require.NoError(t, err)

	_, err = NewIssuer("wrong-secret", time.Hour).Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := NewIssuer("k", time.Hour).Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	// A negative TTL dates the exp claim in the past, so the token is born
	// expired. The margin is well past jwt's second-level claim precision.
	issuer := NewIssuer("secret", -time.Hour)
	signed, err := issuer.Sign(testAuthUser(), "u1")
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSign_ZeroTTLHasNoExpiry(t *testing.T) {
	issuer := NewIssuer("secret", 0)
	signed, err := issuer.Sign(testAuthUser(), "u1")
	require.NoError(t, err)

	// Still verifiable long after issuance would have expired any TTL.
	payload, err := issuer.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "u1", payload.UserID)
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("longenough1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("longenough1", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrongpassword", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	h1, err := HashPassword("samepassword")
	require.NoError(t, err)
	h2, err := HashPassword("samepassword")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestVerifyPassword_BadFormat(t *testing.T) {
	_, err := VerifyPassword("whatever", "not-a-hash")
	require.Error(t, err)

	_, err = VerifyPassword("whatever", "$bcrypt$nope$x$y$z")
	require.Error(t, err)
}

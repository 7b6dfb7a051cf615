package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)
	require.NotContains(t, string(hash), "rahasia123")

	ok, err := VerifyPassword("rahasia123", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("salah-besar", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("rahasia123")
	require.NoError(t, err)
	second, err := HashPassword("rahasia123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyMalformedHash(t *testing.T) {
	for _, hash := range []string{"", "plainhash", "$argon2id$v=19$broken"} {
		_, err := VerifyPassword("rahasia123", []byte(hash))
		require.Error(t, err, "hash %q", hash)
	}
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", "acct-1", "sess-1", "user", 30*time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "test-secret")
	require.NoError(t, err)
	require.Equal(t, "acct-1", claims.AccountID)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "user", claims.Role)

	_, err = ParseAccessToken(token, "wrong-secret")
	require.Error(t, err)
}

func TestRandomTokenUnique(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a)
}

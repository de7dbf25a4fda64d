package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "ORGANIZER", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 2*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "ORGANIZER", claims["role"])
}

func TestCheckinTokenRoundTrip(t *testing.T) {
	code, err := NewCheckinCode()
	require.NoError(t, err)

	raw, err := NewCheckinToken("secret", 7, code, 30)
	require.NoError(t, err)

	claims, err := ParseCheckinToken("secret", raw)
	require.NoError(t, err)
	require.Equal(t, uint64(7), claims.RegistrationID)
	require.Equal(t, code, claims.QRToken)
}

func TestCheckinTokenWrongSecret(t *testing.T) {
	raw, err := NewCheckinToken("secret", 7, "code", 30)
	require.NoError(t, err)

	_, err = ParseCheckinToken("other-secret", raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckinTokenExpired(t *testing.T) {
	// Sign a token whose exp is already in the past.
	claims := jwt.MapClaims{
		"qr_token":        "code",
		"registration_id": 7,
		"exp":             time.Now().UTC().Add(-time.Hour).Unix(),
		"iat":             time.Now().UTC().Add(-2 * time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseCheckinToken("secret", raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckinTokenMissingClaims(t *testing.T) {
	claims := jwt.MapClaims{
		"exp": time.Now().UTC().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseCheckinToken("secret", raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCheckinCodeShape(t *testing.T) {
	// 32 random bytes encode to exactly 43 base64url characters, which is
	// what the qr_code column is sized for.
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewCheckinCode()
		require.NoError(t, err)
		require.Len(t, code, 43)
		require.False(t, seen[code], "codes must not repeat")
		seen[code] = true
	}
}

func TestHashRefreshRawStable(t *testing.T) {
	h1 := HashRefreshRaw("abc")
	h2 := HashRefreshRaw("abc")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64) // sha256 hex
	require.NotEqual(t, h1, HashRefreshRaw("abd"))
}

package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT() *JWT {
	return NewJWT("secret", 15*time.Minute, 24*time.Hour)
}

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)
	got, err := j.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestJWT_RefreshToken_Roundtrip(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	refresh, jti, err := j.GenerateRefreshToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	gotUser, gotJTI, err := j.ParseRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, u, gotUser)
	require.Equal(t, jti, gotJTI)
	assert.Equal(t, 24*time.Hour, j.RefreshTTL())
}

func TestJWT_TokenType_Mismatch(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)
	_, _, err = j.ParseRefreshToken(access)
	require.Error(t, err)

	refresh, _, err := j.GenerateRefreshToken(u)
	require.NoError(t, err)
	_, err = j.ParseAccessToken(refresh)
	require.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	j := newTestJWT()
	issued := time.Now().Add(-time.Hour)
	j.now = func() time.Time { return issued }

	access, err := j.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ParseAccessToken(access)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	access, err := newTestJWT().GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWT("other", time.Minute, time.Hour).ParseAccessToken(access)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWT_RejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: typeAccess,
	})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWT().ParseAccessToken(s)
	require.Error(t, err)
}

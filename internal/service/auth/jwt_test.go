package auth

import (
	"EduForge/internal/app_errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCarriesRolesAndSubject(t *testing.T) {
	m := NewJWTManager("secret", "eduforge", time.Minute, time.Hour)
	userID := uuid.New()

	pair, err := m.Issue(userID, []string{"teacher"})
	require.NoError(t, err)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := m.Parse(pair.AccessToken, AccessTokenType)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, []string{"teacher"}, claims.Roles)
	assert.Equal(t, "eduforge", claims.Issuer)

	refresh, err := m.Parse(pair.RefreshToken, RefreshTokenType)
	require.NoError(t, err)
	assert.Empty(t, refresh.Roles)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", "eduforge", time.Minute, time.Hour)
	userID := uuid.New()
	pair, err := m.Issue(userID, []string{"student"})
	require.NoError(t, err)

	otherIssuer, err := NewJWTManager("secret", "someone-else", time.Minute, time.Hour).Issue(userID, []string{"teacher"})
	require.NoError(t, err)
	otherKey, err := NewJWTManager("other-secret", "eduforge", time.Minute, time.Hour).Issue(userID, []string{"teacher"})
	require.NoError(t, err)

	now := time.Now()
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		TokenType:        AccessTokenType,
		RegisteredClaims: m.registered(userID, now, now.Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(signingMethod, Claims{
		TokenType: AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
			Issuer:  "eduforge",
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"refresh used as access", pair.RefreshToken, AccessTokenType},
		{"access used as refresh", pair.AccessToken, RefreshTokenType},
		{"wrong issuer", otherIssuer.AccessToken, AccessTokenType},
		{"wrong key", otherKey.AccessToken, AccessTokenType},
		{"other algorithm", hs512, AccessTokenType},
		{"no expiry", noExpiry, AccessTokenType},
		{"garbage", "not.a.token", AccessTokenType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(tt.token, tt.want)
			assert.ErrorIs(t, err, app_errors.ErrInvalidToken)
		})
	}
}

func TestParseReportsExpiry(t *testing.T) {
	m := NewJWTManager("secret", "eduforge", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, err := m.Issue(uuid.New(), nil)
	require.NoError(t, err)

	_, err = m.Parse(pair.AccessToken, AccessTokenType)
	assert.ErrorIs(t, err, app_errors.ErrTokenExpired)

	_, err = m.Parse(pair.RefreshToken, RefreshTokenType)
	assert.NoError(t, err)
}

package auth

import (
	"testing"
	"time"

	"docauth/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, now func() time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "docauth-test", 15*time.Minute, 24*time.Hour, WithClock(now))
	require.NoError(t, err)
	return m
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager("", "x", time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenManager("s", "x", 0, time.Hour)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	m := newManager(t, func() time.Time { return now })
	u := &model.User{ID: "user-1", Username: "alice", IsAdmin: true}

	pair, err := m.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.WithinDuration(t, now.Add(15*time.Minute), pair.AccessExpiresAt, time.Second)

	p, err := m.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.Principal{UserID: "user-1", Username: "alice", IsAdmin: true}, *p)

	sub, err := m.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestParse_WrongType(t *testing.T) {
	m := newManager(t, time.Now)
	pair, err := m.Issue(&model.User{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	clock := issued
	m := newManager(t, func() time.Time { return clock })

	pair, err := m.Issue(&model.User{ID: "u", Username: "u"})
	require.NoError(t, err)

	clock = issued.Add(16 * time.Minute)
	_, err = m.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestParse_Tampered(t *testing.T) {
	m := newManager(t, time.Now)
	other, err := NewTokenManager("other-secret", "docauth-test", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := other.Issue(&model.User{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	m := newManager(t, time.Now)
	claims := Claims{
		Username: "mallory",
		Admin:    true,
		Type:     TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "docauth-test",
			Subject:   "u",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ParseAccess(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongIssuer(t *testing.T) {
	m := newManager(t, time.Now)
	other, err := NewTokenManager("test-secret", "someone-else", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := other.Issue(&model.User{ID: "u", Username: "u"})
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

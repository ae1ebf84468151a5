package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTManager(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	m, err := NewJWTManager("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, m.TTL())
}

func TestJWTManager_IssueAndParse(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewJWTManager("secret", DefaultTokenTTL)
	require.NoError(t, err)
	m.WithClock(func() time.Time { return issuedAt })

	tok, exp, err := m.Issue(TokenClaims{
		Subject: "acc-1", Email: "a@x.com", Name: "Ann", RollNumber: "R-7", Role: "USER",
	})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(7*24*time.Hour), exp)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, "R-7", claims.RollNo)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())

	// payload carries exactly the identity claims plus iat/exp
	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, raw)
	require.NoError(t, err)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"sub", "email", "name", "rollno", "role", "iat", "exp"}, keys)
}

func TestJWTManager_ParseRejects(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	m.WithClock(func() time.Time { return now })

	tok, _, err := m.Issue(TokenClaims{Subject: "acc-1"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later, _ := NewJWTManager("secret", time.Hour)
		later.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewJWTManager("other", time.Hour)
		other.WithClock(func() time.Time { return now })
		_, err := other.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "acc-1", "exp": now.Add(time.Hour).Unix(),
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

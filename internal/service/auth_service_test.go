package service

import (
	"testing"
	"time"

	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth() *AuthService {
	return NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
}

func TestIssueAndValidateToken(t *testing.T) {
	auth := newAuth()

	token, err := auth.IssueToken("  Teacher@School.test ", RoleTeacher)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.test", claims.Email)
	assert.Equal(t, "teacher@school.test", claims.Subject)
	assert.Equal(t, RoleTeacher, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueTokenRejects(t *testing.T) {
	auth := newAuth()

	_, err := auth.IssueToken(" ", RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.IssueToken("a@b.test", Role("admin"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestValidateTokenRejects(t *testing.T) {
	auth := newAuth()
	token, err := auth.IssueToken("a@b.test", RoleStudent)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := newAuth()
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := old.IssueToken("a@b.test", RoleStudent)
		require.NoError(t, err)
		_, err = auth.ValidateToken(expired)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Student ")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, r)

	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("secret", 3600)

	token, err := m.GenerateToken(42, "Desk", "editor")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewManager("secret", 3600).GenerateToken(1, "", "admin")
	require.NoError(t, err)

	_, err = NewManager("other", 3600).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	token, err := NewManager("secret", -60).GenerateToken(1, "", "admin")
	require.NoError(t, err)

	_, err = NewManager("secret", 3600).VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := NewManager("secret", 3600).VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", "actionlink", 1)

	token, err := m.GenerateToken(7, "alice", "alice@example.com", "user")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewManager("secret", "actionlink", 1)
	other := NewManager("other-secret", "actionlink", 1)

	token, err := other.GenerateToken(1, "bob", "bob@example.com", "user")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.Error(t, err)

	expired := NewManager("secret", "actionlink", -1)
	token, err = expired.GenerateToken(1, "bob", "bob@example.com", "user")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.Error(t, err)

	_, err = m.ValidateToken("not-a-token")
	assert.Error(t, err)
}

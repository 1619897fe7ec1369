package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute, "")
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "alice@x.com")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Minute, "")
	token, err := m.GenerateAccessToken(uuid.New(), "alice@x.com")
	require.NoError(t, err)

	_, err = NewManager("other", time.Minute, "").ValidateAccessToken(token)
	assert.Error(t, err)

	_, err = NewManager("secret", time.Minute, "someone-else").ValidateAccessToken(token)
	assert.Error(t, err)

	expired, err := NewManager("secret", -time.Minute, "").GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(expired)
	assert.Error(t, err)

	_, err = m.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

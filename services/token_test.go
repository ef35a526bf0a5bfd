package services

import (
	"testing"

	"requestarr/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: "u-42", Username: "alice", Role: models.RoleUser}

	token, err := IssueToken("test-secret", user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", sub)
}

func TestTokenWrongSecret(t *testing.T) {
	user := &models.User{ID: "u-42", Username: "alice", Role: models.RoleUser}

	token, err := IssueToken("test-secret", user)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken("test-secret", "not.a.token")
	assert.Error(t, err)

	_, err = ParseToken("test-secret", "")
	assert.Error(t, err)
}
